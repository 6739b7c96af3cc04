package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
)

// Одиночные геттеры возвращают nil, nil если запись не найдена.

// CalendarStore правила доступности и исключения по датам
type CalendarStore interface {
	ActiveRulesForDay(ctx context.Context, instructorID uuid.UUID, dayOfWeek int) ([]*model.AvailabilityRule, error)
	OverrideForDate(ctx context.Context, instructorID uuid.UUID, date time.Time) (*model.AvailabilityOverride, error)
	CreateRule(ctx context.Context, rule *model.AvailabilityRule) error
	DeactivateRule(ctx context.Context, instructorID, ruleID uuid.UUID) (bool, error)
	UpsertOverride(ctx context.Context, override *model.AvailabilityOverride) error
}

// BookingStore бронирования
type BookingStore interface {
	ActiveBookingsBetween(ctx context.Context, instructorID uuid.UUID, from, to time.Time) ([]*model.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetBookingDetails(ctx context.Context, id uuid.UUID) (*model.BookingDetails, error)
	CreateBooking(ctx context.Context, booking *model.Booking) error
	UpdateBookingStatus(ctx context.Context, booking *model.Booking) error
	ListInstructorBookings(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*model.Booking, error)
	ListStudentBookings(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*model.Booking, error)
}

// Directory инструкторы и студенты
type Directory interface {
	GetInstructor(ctx context.Context, id uuid.UUID) (*model.Instructor, error)
	GetInstructorByProfile(ctx context.Context, profileID uuid.UUID) (*model.Instructor, error)
	GetStudentByProfile(ctx context.Context, profileID uuid.UUID) (*model.Student, error)
}

// Catalog услуги инструкторов
type Catalog interface {
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	// ListActiveServices uuid.Nil означает всех инструкторов
	ListActiveServices(ctx context.Context, instructorID uuid.UUID) ([]*model.Service, error)
	CreateService(ctx context.Context, service *model.Service) error
}

// Transactor выполняет fn атомарно и эксклюзивно для одного инструктора
type Transactor interface {
	WithinInstructorLock(ctx context.Context, instructorID uuid.UUID, fn func(ctx context.Context) error) error
}

// AuditEmitter пишет событие аудита; ошибки обрабатываются внутри
type AuditEmitter interface {
	Emit(ctx context.Context, event model.AuditEvent)
}

// SlotLocker краткосрочная блокировка слота до начала транзакции
type SlotLocker interface {
	AcquireSlotLock(ctx context.Context, instructorID uuid.UUID, start time.Time, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, instructorID uuid.UUID, start time.Time) error
}

// Notifier уведомляет участников о событиях бронирования
type Notifier interface {
	NotifyBooking(ctx context.Context, action string, details *model.BookingDetails) error
}

// Actor вызывающий пользователь
type Actor struct {
	ProfileID uuid.UUID
	Role      model.Role
}

type nopAudit struct{}

func (nopAudit) Emit(context.Context, model.AuditEvent) {}
