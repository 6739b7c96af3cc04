package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"go.uber.org/zap"
)

// DayAvailability свободные слоты инструктора на одну дату
type DayAvailability struct {
	Date         string           `json:"date"`
	InstructorID uuid.UUID        `json:"instructorId"`
	Slots        []model.TimeSlot `json:"slots"`
}

// RuleInput новое еженедельное правило
type RuleInput struct {
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
}

// OverrideInput исключение на дату; при isAvailable=false время игнорируется
type OverrideInput struct {
	Date        string  `json:"date" validate:"required"`
	IsAvailable *bool   `json:"isAvailable" validate:"required"`
	StartTime   *string `json:"startTime" validate:"required_with=EndTime,omitempty,datetime=15:04"`
	EndTime     *string `json:"endTime" validate:"required_with=StartTime,omitempty,datetime=15:04"`
	Reason      *string `json:"reason" validate:"omitempty,max=500"`
}

type AvailabilityService struct {
	calendar  CalendarStore
	bookings  BookingStore
	directory Directory
	tx        Transactor
	audit     AuditEmitter
	clock     Clock
	settings  Settings
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewAvailabilityService(
	calendar CalendarStore,
	bookings BookingStore,
	directory Directory,
	tx Transactor,
	audit AuditEmitter,
	clock Clock,
	settings Settings,
	logger *zap.Logger,
) *AvailabilityService {
	if audit == nil {
		audit = nopAudit{}
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &AvailabilityService{
		calendar:  calendar,
		bookings:  bookings,
		directory: directory,
		tx:        tx,
		audit:     audit,
		clock:     clock,
		settings:  settings.withDefaults(),
		validate:  validator.New(),
		logger:    logger,
	}
}

// ResolveAvailability возвращает свободные слоты инструктора на дату YYYY-MM-DD
func (s *AvailabilityService) ResolveAvailability(ctx context.Context, instructorID uuid.UUID, date string) (*DayAvailability, error) {
	if _, err := ParseDate(date, time.UTC); err != nil {
		return nil, err
	}

	instructor, err := s.directory.GetInstructor(ctx, instructorID)
	if err != nil {
		return nil, storeErr("get instructor", err)
	}
	if instructor == nil {
		return nil, ErrInstructorNotFound
	}

	loc := s.locationFor(instructor)
	day, err := ParseDate(date, loc)
	if err != nil {
		return nil, err
	}
	if !s.withinHorizon(day, loc) {
		return nil, fmt.Errorf("%w: %s is more than %d days ahead", ErrInvalidDate, date, s.settings.HorizonDays)
	}

	slots, err := s.slotsForDay(ctx, instructor.ID, day)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Availability resolved",
		zap.String("instructor_id", instructor.ID.String()),
		zap.String("date", date),
		zap.Int("slots", len(slots)))

	return &DayAvailability{Date: date, InstructorID: instructor.ID, Slots: slots}, nil
}

// slotsForDay собирает слоты дня: правило, исключение, прошлое время, занятые интервалы.
// day должен быть полуночью в часовом поясе инструктора.
func (s *AvailabilityService) slotsForDay(ctx context.Context, instructorID uuid.UUID, day time.Time) ([]model.TimeSlot, error) {
	empty := []model.TimeSlot{}

	rules, err := s.calendar.ActiveRulesForDay(ctx, instructorID, int(day.Weekday()))
	if err != nil {
		return nil, storeErr("get availability rules", err)
	}
	if len(rules) == 0 {
		return empty, nil
	}
	// первое правило в порядке создания считается основным
	rule := rules[0]
	start, end := rule.StartTime, rule.EndTime

	override, err := s.calendar.OverrideForDate(ctx, instructorID, civilDate(day))
	if err != nil {
		return nil, storeErr("get availability override", err)
	}
	if override != nil {
		if !override.IsAvailable {
			return empty, nil
		}
		if override.StartTime != nil {
			start = *override.StartTime
		}
		if override.EndTime != nil {
			end = *override.EndTime
		}
	}

	candidates, err := GenerateSlots(day, start, end, s.settings.DefaultSlotMinutes)
	if err != nil {
		return nil, fmt.Errorf("generate slots for rule %s: %w", rule.ID, err)
	}

	booked, err := s.bookings.ActiveBookingsBetween(ctx, instructorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, storeErr("get active bookings", err)
	}

	now := s.clock.Now()
	slots := make([]model.TimeSlot, 0, len(candidates))
	for _, slot := range candidates {
		if !slot.Start.After(now) {
			continue
		}
		if overlapsAny(slot, booked) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func overlapsAny(slot model.TimeSlot, bookings []*model.Booking) bool {
	for _, b := range bookings {
		if slot.Overlaps(b.ScheduledAt, b.EndsAt()) {
			return true
		}
	}
	return false
}

// locationFor часовой пояс инструктора или пояс по умолчанию
func (s *AvailabilityService) locationFor(instructor *model.Instructor) *time.Location {
	if instructor.Timezone == "" {
		return s.settings.Location
	}
	loc, err := time.LoadLocation(instructor.Timezone)
	if err != nil {
		s.logger.Warn("Unknown instructor timezone, using default",
			zap.String("instructor_id", instructor.ID.String()),
			zap.String("timezone", instructor.Timezone),
			zap.Error(err))
		return s.settings.Location
	}
	return loc
}

func (s *AvailabilityService) withinHorizon(day time.Time, loc *time.Location) bool {
	limit := startOfDay(s.clock.Now(), loc).AddDate(0, 0, s.settings.HorizonDays)
	return !day.After(limit)
}

// actingInstructor проверяет что вызывающий является инструктором
func (s *AvailabilityService) actingInstructor(ctx context.Context, actor Actor) (*model.Instructor, error) {
	return actingInstructor(ctx, s.directory, actor)
}

func actingInstructor(ctx context.Context, directory Directory, actor Actor) (*model.Instructor, error) {
	if actor.Role != model.RoleInstructor {
		return nil, ErrForbidden
	}
	instructor, err := directory.GetInstructorByProfile(ctx, actor.ProfileID)
	if err != nil {
		return nil, storeErr("get instructor", err)
	}
	if instructor == nil {
		return nil, ErrInstructorNotFound
	}
	return instructor, nil
}

func (s *AvailabilityService) validateInput(input any) error {
	return validateStruct(s.validate, input)
}

// validateStruct переводит ошибки validator в ErrInvalidInput
func validateStruct(validate *validator.Validate, input any) error {
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return invalid("field %s failed %s", verrs[0].Field(), verrs[0].Tag())
		}
		return invalid("%v", err)
	}
	return nil
}

// CreateRule добавляет еженедельное правило доступности инструктора
func (s *AvailabilityService) CreateRule(ctx context.Context, actor Actor, input RuleInput) (*model.AvailabilityRule, error) {
	instructor, err := s.actingInstructor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	from, err := parseClock(input.StartTime)
	if err != nil {
		return nil, err
	}
	to, err := parseClock(input.EndTime)
	if err != nil {
		return nil, err
	}
	if from >= to {
		return nil, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow, input.StartTime, input.EndTime)
	}

	rule := &model.AvailabilityRule{
		InstructorID: instructor.ID,
		DayOfWeek:    *input.DayOfWeek,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		IsActive:     true,
	}

	err = s.tx.WithinInstructorLock(ctx, instructor.ID, func(ctx context.Context) error {
		if s.settings.RejectOverlappingRules {
			existing, err := s.calendar.ActiveRulesForDay(ctx, instructor.ID, rule.DayOfWeek)
			if err != nil {
				return storeErr("get availability rules", err)
			}
			for _, other := range existing {
				otherFrom, errFrom := parseClock(other.StartTime)
				otherTo, errTo := parseClock(other.EndTime)
				if errFrom != nil || errTo != nil {
					continue
				}
				if from < otherTo && to > otherFrom {
					return fmt.Errorf("%w: %s-%s overlaps rule %s", ErrRuleOverlap, rule.StartTime, rule.EndTime, other.ID)
				}
			}
		}
		if err := s.calendar.CreateRule(ctx, rule); err != nil {
			return storeErr("create availability rule", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("create availability rule", err)
	}

	s.emit(ctx, actor, model.ActionRuleCreated, model.EntityRule, rule.ID, map[string]any{
		"dayOfWeek": rule.DayOfWeek,
		"startTime": rule.StartTime,
		"endTime":   rule.EndTime,
	})

	s.logger.Info("Availability rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("instructor_id", instructor.ID.String()),
		zap.Int("day_of_week", rule.DayOfWeek),
		zap.String("start", rule.StartTime),
		zap.String("end", rule.EndTime))

	return rule, nil
}

// DeactivateRule выключает правило инструктора, не удаляя его
func (s *AvailabilityService) DeactivateRule(ctx context.Context, actor Actor, ruleID uuid.UUID) error {
	instructor, err := s.actingInstructor(ctx, actor)
	if err != nil {
		return err
	}

	updated, err := s.calendar.DeactivateRule(ctx, instructor.ID, ruleID)
	if err != nil {
		return storeErr("deactivate availability rule", err)
	}
	if !updated {
		return ErrRuleNotFound
	}

	s.emit(ctx, actor, model.ActionRuleDeactivated, model.EntityRule, ruleID, nil)

	s.logger.Info("Availability rule deactivated",
		zap.String("rule_id", ruleID.String()),
		zap.String("instructor_id", instructor.ID.String()))

	return nil
}

// SetOverride создаёт или заменяет исключение инструктора на дату
func (s *AvailabilityService) SetOverride(ctx context.Context, actor Actor, input OverrideInput) (*model.AvailabilityOverride, error) {
	instructor, err := s.actingInstructor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	day, err := ParseDate(input.Date, time.UTC)
	if err != nil {
		return nil, err
	}

	override := &model.AvailabilityOverride{
		InstructorID: instructor.ID,
		Date:         day,
		IsAvailable:  *input.IsAvailable,
		Reason:       input.Reason,
	}
	if override.IsAvailable && input.StartTime != nil && input.EndTime != nil {
		from, err := parseClock(*input.StartTime)
		if err != nil {
			return nil, err
		}
		to, err := parseClock(*input.EndTime)
		if err != nil {
			return nil, err
		}
		if from >= to {
			return nil, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow, *input.StartTime, *input.EndTime)
		}
		override.StartTime = input.StartTime
		override.EndTime = input.EndTime
	}

	if err := s.calendar.UpsertOverride(ctx, override); err != nil {
		return nil, storeErr("save availability override", err)
	}

	payload := map[string]any{
		"date":        input.Date,
		"isAvailable": override.IsAvailable,
	}
	if override.HasWindow() {
		payload["startTime"] = *override.StartTime
		payload["endTime"] = *override.EndTime
	}
	s.emit(ctx, actor, model.ActionOverrideSet, model.EntityOverride, override.ID, payload)

	s.logger.Info("Availability override set",
		zap.String("override_id", override.ID.String()),
		zap.String("instructor_id", instructor.ID.String()),
		zap.String("date", input.Date),
		zap.Bool("is_available", override.IsAvailable))

	return override, nil
}

func (s *AvailabilityService) emit(ctx context.Context, actor Actor, action, entityType string, entityID uuid.UUID, payload map[string]any) {
	actorID := actor.ProfileID
	s.audit.Emit(ctx, model.AuditEvent{
		ActorProfileID: &actorID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		Payload:        payload,
		Severity:       model.SeverityInfo,
	})
}
