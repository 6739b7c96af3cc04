package controller

import (
	"context"

	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAvailabilityUseCase struct {
	mock.Mock
}

func (m *MockAvailabilityUseCase) ResolveAvailability(ctx context.Context, instructorID uuid.UUID, date string) (*service.DayAvailability, error) {
	args := m.Called(ctx, instructorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DayAvailability), args.Error(1)
}

func (m *MockAvailabilityUseCase) CreateRule(ctx context.Context, actor service.Actor, input service.RuleInput) (*model.AvailabilityRule, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AvailabilityRule), args.Error(1)
}

func (m *MockAvailabilityUseCase) DeactivateRule(ctx context.Context, actor service.Actor, ruleID uuid.UUID) error {
	args := m.Called(ctx, actor, ruleID)
	return args.Error(0)
}

func (m *MockAvailabilityUseCase) SetOverride(ctx context.Context, actor service.Actor, input service.OverrideInput) (*model.AvailabilityOverride, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AvailabilityOverride), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, actor service.Actor, input service.CreateBookingInput) (*model.BookingDetails, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingDetails), args.Error(1)
}

func (m *MockBookingUseCase) UpdateBookingStatus(ctx context.Context, actor service.Actor, bookingID uuid.UUID, input service.StatusInput) (*model.BookingDetails, error) {
	args := m.Called(ctx, actor, bookingID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingDetails), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, actor service.Actor, bookingID uuid.UUID) (*model.BookingDetails, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingDetails), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.Booking, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) ListServices(ctx context.Context, instructorID uuid.UUID) ([]*model.Service, error) {
	args := m.Called(ctx, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Service), args.Error(1)
}

func (m *MockCatalogUseCase) CreateService(ctx context.Context, actor service.Actor, input service.ServiceInput) (*model.Service, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
