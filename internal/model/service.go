package model

import (
	"time"

	"github.com/google/uuid"
)

// Service описывает тип занятия: длительность и цена
type Service struct {
	ID              uuid.UUID `json:"id"`
	InstructorID    uuid.UUID `json:"instructorId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      int       `json:"priceCents"` // в центах, без float
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

