package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
)

// Valid проверяет что роль известна
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent, RoleParent:
		return true
	}
	return false
}

// Profile общая учётная запись пользователя (привязана к внешнему identity provider)
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Instructor struct {
	ID             uuid.UUID `json:"id"`
	ProfileID      uuid.UUID `json:"profileId"`
	BusinessName   string    `json:"businessName"`
	Timezone       string    `json:"timezone"`       // пусто = часовой пояс из конфига
	TelegramChatID *int64    `json:"telegramChatId"` // nil = уведомления выключены
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Student struct {
	ID           uuid.UUID `json:"id"`
	ProfileID    uuid.UUID `json:"profileId"`
	InstructorID uuid.UUID `json:"instructorId"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
