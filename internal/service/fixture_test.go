package service

import (
	"context"
	"testing"
	"time"

	"github.com/nexdrive/scheduler/internal/audit"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var aedt = time.FixedZone("AEDT", 11*3600)

// понедельник, 2 марта 2026, 08:00 по Канберре
var mondayMorning = time.Date(2026, 3, 2, 8, 0, 0, 0, aedt)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

type fixture struct {
	store *memory.Store
	clock *testClock

	availability *AvailabilityService
	bookings     *BookingService
	catalog      *CatalogService

	instructor      model.Instructor
	instructorActor Actor
	student         model.Student
	studentActor    Actor
	service         model.Service
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithSettings(t, Settings{Location: aedt})
}

func newFixtureWithSettings(t *testing.T, settings Settings) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := &testClock{now: mondayMorning}
	logger := zap.NewNop()
	emitter := audit.NewEmitter(logger, store)

	availability := NewAvailabilityService(store, store, store, store, emitter, clock, settings, logger)
	bookings := NewBookingService(availability, store, store, store, store, emitter, logger)
	catalog := NewCatalogService(store, store, emitter, logger)

	instructorProfile := store.AddProfile(model.Profile{FirstName: "Rob", LastName: "Hart", Role: model.RoleInstructor})
	instructor := store.AddInstructor(model.Instructor{ProfileID: instructorProfile.ID, BusinessName: "Hart Driving", IsActive: true})
	studentProfile := store.AddProfile(model.Profile{FirstName: "Sam", LastName: "Lee", Role: model.RoleStudent})
	student := store.AddStudent(model.Student{ProfileID: studentProfile.ID, InstructorID: instructor.ID, IsActive: true})
	svc := store.AddService(model.Service{
		InstructorID:    instructor.ID,
		Name:            "Standard lesson",
		DurationMinutes: 60,
		PriceCents:      8500,
		IsActive:        true,
	})

	return &fixture{
		store:           store,
		clock:           clock,
		availability:    availability,
		bookings:        bookings,
		catalog:         catalog,
		instructor:      instructor,
		instructorActor: Actor{ProfileID: instructorProfile.ID, Role: model.RoleInstructor},
		student:         student,
		studentActor:    Actor{ProfileID: studentProfile.ID, Role: model.RoleStudent},
		service:         svc,
	}
}

func (f *fixture) addRule(t *testing.T, day time.Weekday, start, end string) *model.AvailabilityRule {
	t.Helper()
	dow := int(day)
	rule, err := f.availability.CreateRule(context.Background(), f.instructorActor, RuleInput{
		DayOfWeek: &dow,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	return rule
}

// addBooking вставляет бронирование в обход проверки слотов
func (f *fixture) addBooking(start time.Time, minutes int, status model.BookingStatus) model.Booking {
	return f.store.AddBooking(model.Booking{
		InstructorID:    f.instructor.ID,
		StudentID:       f.student.ID,
		ServiceID:       f.service.ID,
		ScheduledAt:     start,
		DurationMinutes: minutes,
		Status:          status,
	})
}

// newStudent регистрирует ещё одного студента того же инструктора
func (f *fixture) newStudent() Actor {
	profile := f.store.AddProfile(model.Profile{FirstName: "Alex", Role: model.RoleStudent})
	f.store.AddStudent(model.Student{ProfileID: profile.ID, InstructorID: f.instructor.ID, IsActive: true})
	return Actor{ProfileID: profile.ID, Role: model.RoleStudent}
}

func (f *fixture) bookingInput(start time.Time) CreateBookingInput {
	return CreateBookingInput{
		InstructorID: f.instructor.ID,
		ServiceID:    f.service.ID,
		ScheduledAt:  start,
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, aedt)
}

func slotStarts(slots []model.TimeSlot) []string {
	starts := make([]string, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start.In(aedt).Format("15:04"))
	}
	return starts
}

func auditActions(store *memory.Store) []string {
	var actions []string
	for _, ev := range store.AuditEvents() {
		actions = append(actions, ev.Action)
	}
	return actions
}
