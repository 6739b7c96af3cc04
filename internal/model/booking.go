package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"     // Ожидает подтверждения инструктора или оплаты
	BookingStatusConfirmed   BookingStatus = "confirmed"   // Подтверждено
	BookingStatusInProgress  BookingStatus = "in_progress" // Занятие идёт
	BookingStatusCompleted   BookingStatus = "completed"   // Завершено
	BookingStatusCancelled   BookingStatus = "cancelled"   // Отменено
	BookingStatusNoShow      BookingStatus = "no_show"     // Студент не пришёл
	BookingStatusRescheduled BookingStatus = "rescheduled" // Зарезервировано под перенос
)

// IsActive сообщает, блокирует ли статус время инструктора
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	ID                 uuid.UUID     `json:"id"`
	InstructorID       uuid.UUID     `json:"instructorId"`
	StudentID          uuid.UUID     `json:"studentId"`
	ServiceID          uuid.UUID     `json:"serviceId"`
	ScheduledAt        time.Time     `json:"scheduledAt"`
	DurationMinutes    int           `json:"durationMinutes"` // копируется из Service при создании
	Status             BookingStatus `json:"status"`
	MeetingLocation    *string       `json:"meetingLocation"`
	Notes              *string       `json:"notes"`
	CancellationReason *string       `json:"cancellationReason"`
	ConfirmedAt        *time.Time    `json:"confirmedAt"`
	CancelledAt        *time.Time    `json:"cancelledAt"`
	CompletedAt        *time.Time    `json:"completedAt"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// EndsAt возвращает конец интервала занятия
func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Overlaps проверяет строгое пересечение с [start, end)
func (b *Booking) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndsAt()) && end.After(b.ScheduledAt)
}

// PersonDisplay краткие данные человека для ответа API и уведомлений
type PersonDisplay struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	TelegramChatID *int64    `json:"-"`
}

// BookingDetails бронирование вместе с услугой, студентом и инструктором
type BookingDetails struct {
	Booking
	Service    *Service       `json:"service"`
	Student    *PersonDisplay `json:"student"`
	Instructor *PersonDisplay `json:"instructor"`
}
