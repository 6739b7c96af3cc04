package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	notifyTimeout = 5 * time.Second
)

// CreateBookingInput запрос студента на бронирование слота
type CreateBookingInput struct {
	InstructorID    uuid.UUID `json:"instructorId"`
	ServiceID       uuid.UUID `json:"serviceId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	Notes           *string   `json:"notes" validate:"omitempty,max=2000"`
	MeetingLocation *string   `json:"meetingLocation" validate:"omitempty,max=500"`
}

// StatusInput смена статуса бронирования
type StatusInput struct {
	Status model.BookingStatus `json:"status"`
	Reason *string             `json:"reason" validate:"omitempty,max=500"`
}

// bookingTransitions допустимые переходы статусов
var bookingTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingStatusPending:   {model.BookingStatusConfirmed, model.BookingStatusCancelled},
	model.BookingStatusConfirmed: {model.BookingStatusCompleted, model.BookingStatusCancelled, model.BookingStatusNoShow},
}

func canTransition(from, to model.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// settableStatus статусы, которые можно выставить через UpdateBookingStatus
func settableStatus(status model.BookingStatus) bool {
	switch status {
	case model.BookingStatusConfirmed, model.BookingStatusCancelled,
		model.BookingStatusCompleted, model.BookingStatusNoShow:
		return true
	}
	return false
}

type BookingService struct {
	availability *AvailabilityService
	bookings     BookingStore
	directory    Directory
	catalog      Catalog
	tx           Transactor
	audit        AuditEmitter
	locker       SlotLocker
	notifier     Notifier
	logger       *zap.Logger
}

// NewBookingService создаёт сервис бронирований. Часы и настройки берутся из availability.
func NewBookingService(
	availability *AvailabilityService,
	bookings BookingStore,
	directory Directory,
	catalog Catalog,
	tx Transactor,
	audit AuditEmitter,
	logger *zap.Logger,
) *BookingService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &BookingService{
		availability: availability,
		bookings:     bookings,
		directory:    directory,
		catalog:      catalog,
		tx:           tx,
		audit:        audit,
		logger:       logger,
	}
}

// WithSlotLocker включает краткосрочную блокировку слота перед транзакцией
func (s *BookingService) WithSlotLocker(locker SlotLocker) *BookingService {
	s.locker = locker
	return s
}

// WithNotifier включает уведомления о бронированиях
func (s *BookingService) WithNotifier(notifier Notifier) *BookingService {
	s.notifier = notifier
	return s
}

func (s *BookingService) now() time.Time {
	return s.availability.clock.Now()
}

// CreateBooking бронирует слот для студента, вызывающего операцию
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, input CreateBookingInput) (*model.BookingDetails, error) {
	if input.InstructorID == uuid.Nil || input.ServiceID == uuid.Nil || input.ScheduledAt.IsZero() {
		return nil, invalid("instructorId, serviceId and scheduledAt are required")
	}
	if err := s.availability.validateInput(input); err != nil {
		return nil, err
	}

	student, err := s.directory.GetStudentByProfile(ctx, actor.ProfileID)
	if err != nil {
		return nil, storeErr("get student", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	svc, err := s.catalog.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, storeErr("get service", err)
	}
	if svc == nil || !svc.IsActive || svc.InstructorID != input.InstructorID {
		return nil, ErrServiceNotFound
	}

	instructor, err := s.directory.GetInstructor(ctx, input.InstructorID)
	if err != nil {
		return nil, storeErr("get instructor", err)
	}
	if instructor == nil {
		return nil, ErrInstructorNotFound
	}

	loc := s.availability.locationFor(instructor)
	day := startOfDay(input.ScheduledAt, loc)
	if !s.availability.withinHorizon(day, loc) {
		return nil, fmt.Errorf("%w: %s is more than %d days ahead", ErrInvalidDate,
			day.Format(time.DateOnly), s.availability.settings.HorizonDays)
	}

	if s.locker != nil {
		release, err := s.holdSlot(ctx, instructor.ID, input.ScheduledAt)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	booking := &model.Booking{
		InstructorID:    instructor.ID,
		StudentID:       student.ID,
		ServiceID:       svc.ID,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: svc.DurationMinutes,
		Status:          model.BookingStatusPending,
		MeetingLocation: input.MeetingLocation,
		Notes:           input.Notes,
	}

	err = s.tx.WithinInstructorLock(ctx, instructor.ID, func(ctx context.Context) error {
		slots, err := s.availability.slotsForDay(ctx, instructor.ID, day)
		if err != nil {
			return err
		}
		if !containsStart(slots, booking.ScheduledAt) {
			return ErrSlotUnavailable
		}

		// услуга может быть длиннее сетки слотов
		conflicts, err := s.bookings.ActiveBookingsBetween(ctx, instructor.ID, booking.ScheduledAt, booking.EndsAt())
		if err != nil {
			return storeErr("get active bookings", err)
		}
		if len(conflicts) > 0 {
			return ErrSlotUnavailable
		}

		if err := s.bookings.CreateBooking(ctx, booking); err != nil {
			if errors.Is(err, repository.ErrOverlap) {
				return ErrSlotUnavailable
			}
			return storeErr("create booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("create booking", err)
	}

	s.emit(ctx, actor, model.ActionBookingCreated, booking.ID, map[string]any{
		"instructorId": booking.InstructorID.String(),
		"serviceId":    booking.ServiceID.String(),
		"scheduledAt":  booking.ScheduledAt.Format(time.RFC3339),
	})

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("instructor_id", booking.InstructorID.String()),
		zap.String("student_id", booking.StudentID.String()),
		zap.String("service", svc.Name),
		zap.Time("scheduled_at", booking.ScheduledAt),
	)

	details := s.details(ctx, booking)
	s.notify(ctx, model.ActionBookingCreated, details)

	return details, nil
}

// holdSlot берёт блокировку слота; недоступность кэша не мешает бронированию
func (s *BookingService) holdSlot(ctx context.Context, instructorID uuid.UUID, start time.Time) (func(), error) {
	noop := func() {}

	acquired, err := s.locker.AcquireSlotLock(ctx, instructorID, start, s.availability.settings.SlotHoldTTL)
	if err != nil {
		s.logger.Warn("Slot lock unavailable, continuing without it",
			zap.String("instructor_id", instructorID.String()),
			zap.Time("start", start),
			zap.Error(err))
		return noop, nil
	}
	if !acquired {
		return noop, ErrSlotUnavailable
	}

	return func() {
		if err := s.locker.ReleaseSlotLock(context.WithoutCancel(ctx), instructorID, start); err != nil {
			s.logger.Warn("Failed to release slot lock",
				zap.String("instructor_id", instructorID.String()),
				zap.Time("start", start),
				zap.Error(err))
		}
	}, nil
}

func containsStart(slots []model.TimeSlot, start time.Time) bool {
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return true
		}
	}
	return false
}

// UpdateBookingStatus меняет статус бронирования от имени студента или инструктора
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor Actor, bookingID uuid.UUID, input StatusInput) (*model.BookingDetails, error) {
	if !settableStatus(input.Status) {
		return nil, invalid("status %q cannot be set", input.Status)
	}
	if err := s.availability.validateInput(input); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, storeErr("get booking", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if err := s.authorizeMutation(ctx, actor, booking, input.Status); err != nil {
		return nil, err
	}

	var previous model.BookingStatus
	err = s.tx.WithinInstructorLock(ctx, booking.InstructorID, func(ctx context.Context) error {
		current, err := s.bookings.GetBooking(ctx, bookingID)
		if err != nil {
			return storeErr("get booking", err)
		}
		if current == nil {
			return ErrBookingNotFound
		}
		if !canTransition(current.Status, input.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, input.Status)
		}

		previous = current.Status
		now := s.now()
		current.Status = input.Status
		switch input.Status {
		case model.BookingStatusConfirmed:
			current.ConfirmedAt = &now
		case model.BookingStatusCancelled:
			current.CancelledAt = &now
			current.CancellationReason = input.Reason
		case model.BookingStatusCompleted:
			current.CompletedAt = &now
		}

		if err := s.bookings.UpdateBookingStatus(ctx, current); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return storeErr("update booking status", err)
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, storeErr("update booking status", err)
	}

	payload := map[string]any{
		"previousStatus": string(previous),
		"newStatus":      string(booking.Status),
	}
	if input.Reason != nil {
		payload["reason"] = *input.Reason
	}
	action := model.BookingStatusAction(booking.Status)
	s.emit(ctx, actor, action, booking.ID, payload)

	s.logger.Info("Booking status updated",
		zap.String("booking_id", booking.ID.String()),
		zap.String("actor_role", string(actor.Role)),
		zap.String("from", string(previous)),
		zap.String("to", string(booking.Status)),
	)

	details := s.details(ctx, booking)
	s.notify(ctx, action, details)

	return details, nil
}

// authorizeMutation студент может только отменить своё бронирование не позже чем
// за CancellationNotice; инструктор меняет статус только своих бронирований
func (s *BookingService) authorizeMutation(ctx context.Context, actor Actor, booking *model.Booking, target model.BookingStatus) error {
	switch actor.Role {
	case model.RoleStudent:
		if target != model.BookingStatusCancelled {
			return ErrForbidden
		}
		student, err := s.directory.GetStudentByProfile(ctx, actor.ProfileID)
		if err != nil {
			return storeErr("get student", err)
		}
		if student == nil || student.ID != booking.StudentID {
			return ErrForbidden
		}
		if booking.ScheduledAt.Sub(s.now()) < s.availability.settings.CancellationNotice {
			return ErrLateCancellation
		}
		return nil

	case model.RoleInstructor:
		instructor, err := s.directory.GetInstructorByProfile(ctx, actor.ProfileID)
		if err != nil {
			return storeErr("get instructor", err)
		}
		if instructor == nil || instructor.ID != booking.InstructorID {
			return ErrForbidden
		}
		return nil

	default:
		return ErrForbidden
	}
}

// GetBooking возвращает бронирование, если вызывающий имеет к нему доступ
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*model.BookingDetails, error) {
	details, err := s.bookings.GetBookingDetails(ctx, bookingID)
	if err != nil {
		return nil, storeErr("get booking", err)
	}
	if details == nil {
		return nil, ErrBookingNotFound
	}

	allowed, err := s.canRead(ctx, actor, &details.Booking)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return details, nil
}

func (s *BookingService) canRead(ctx context.Context, actor Actor, booking *model.Booking) (bool, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleStudent:
		student, err := s.directory.GetStudentByProfile(ctx, actor.ProfileID)
		if err != nil {
			return false, storeErr("get student", err)
		}
		return student != nil && student.ID == booking.StudentID, nil
	case model.RoleInstructor:
		instructor, err := s.directory.GetInstructorByProfile(ctx, actor.ProfileID)
		if err != nil {
			return false, storeErr("get instructor", err)
		}
		return instructor != nil && instructor.ID == booking.InstructorID, nil
	}
	return false, nil
}

// ListBookings бронирования вызывающего, новые первыми
func (s *BookingService) ListBookings(ctx context.Context, actor Actor, limit, offset int) ([]*model.Booking, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var (
		bookings []*model.Booking
		err      error
	)
	switch actor.Role {
	case model.RoleStudent:
		student, serr := s.directory.GetStudentByProfile(ctx, actor.ProfileID)
		if serr != nil {
			return nil, storeErr("get student", serr)
		}
		if student == nil {
			return nil, ErrStudentNotFound
		}
		bookings, err = s.bookings.ListStudentBookings(ctx, student.ID, limit, offset)
	case model.RoleInstructor:
		instructor, ierr := s.directory.GetInstructorByProfile(ctx, actor.ProfileID)
		if ierr != nil {
			return nil, storeErr("get instructor", ierr)
		}
		if instructor == nil {
			return nil, ErrInstructorNotFound
		}
		bookings, err = s.bookings.ListInstructorBookings(ctx, instructor.ID, limit, offset)
	default:
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return bookings, nil
}

// details дополняет уже сохранённое бронирование связанными данными. Изменение
// закоммичено, поэтому ошибка чтения не превращается в ошибку операции.
func (s *BookingService) details(ctx context.Context, booking *model.Booking) *model.BookingDetails {
	details, err := s.bookings.GetBookingDetails(ctx, booking.ID)
	if err != nil {
		s.logger.Warn("Failed to load booking details after commit",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err))
		return &model.BookingDetails{Booking: *booking}
	}
	if details == nil {
		return &model.BookingDetails{Booking: *booking}
	}
	return details
}

// notify не зависит от отмены запроса и ограничен notifyTimeout
func (s *BookingService) notify(ctx context.Context, action string, details *model.BookingDetails) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyBooking(ctx, action, details); err != nil {
		s.logger.Warn("Failed to send booking notification",
			zap.String("booking_id", details.ID.String()),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (s *BookingService) emit(ctx context.Context, actor Actor, action string, bookingID uuid.UUID, payload map[string]any) {
	actorID := actor.ProfileID
	s.audit.Emit(ctx, model.AuditEvent{
		ActorProfileID: &actorID,
		Action:         action,
		EntityType:     model.EntityBooking,
		EntityID:       bookingID,
		Payload:        payload,
		Severity:       model.SeverityInfo,
	})
}
