package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRule еженедельное окно доступности инструктора
type AvailabilityRule struct {
	ID           uuid.UUID `json:"id"`
	InstructorID uuid.UUID `json:"instructorId"`
	DayOfWeek    int       `json:"dayOfWeek"` // 0 = Sunday, 6 = Saturday
	StartTime    string    `json:"startTime"` // "HH:MM"
	EndTime      string    `json:"endTime"`   // "HH:MM"
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AvailabilityOverride исключение из правил на одну конкретную дату
type AvailabilityOverride struct {
	ID           uuid.UUID `json:"id"`
	InstructorID uuid.UUID `json:"instructorId"`
	Date         time.Time `json:"date"` // календарная дата, полночь UTC
	IsAvailable  bool      `json:"isAvailable"`
	StartTime    *string   `json:"startTime"`
	EndTime      *string   `json:"endTime"`
	Reason       *string   `json:"reason"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasWindow сообщает, задаёт ли override собственное окно времени
func (o *AvailabilityOverride) HasWindow() bool {
	return o.StartTime != nil && o.EndTime != nil
}
