package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository/base"
)

// PeopleRepository читает инструкторов и студентов
type PeopleRepository struct {
	*base.Repository
}

func NewPeopleRepository(pool *pgxpool.Pool) *PeopleRepository {
	return &PeopleRepository{Repository: base.NewRepository(pool)}
}

const instructorColumns = `id, profile_id, COALESCE(business_name, ''), COALESCE(timezone, ''), telegram_chat_id, is_active, created_at`

func (r *PeopleRepository) getInstructor(ctx context.Context, where string, arg uuid.UUID) (*model.Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE ` + where

	var instructor model.Instructor
	err := r.QueryRow(ctx, query, arg).Scan(
		&instructor.ID,
		&instructor.ProfileID,
		&instructor.BusinessName,
		&instructor.Timezone,
		&instructor.TelegramChatID,
		&instructor.IsActive,
		&instructor.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get instructor: %w", err)
	}

	return &instructor, nil
}

// GetInstructor получает инструктора по ID
func (r *PeopleRepository) GetInstructor(ctx context.Context, id uuid.UUID) (*model.Instructor, error) {
	return r.getInstructor(ctx, "id = $1", id)
}

// GetInstructorByProfile получает инструктора по ID профиля
func (r *PeopleRepository) GetInstructorByProfile(ctx context.Context, profileID uuid.UUID) (*model.Instructor, error) {
	return r.getInstructor(ctx, "profile_id = $1", profileID)
}

// GetStudentByProfile получает студента по ID профиля
func (r *PeopleRepository) GetStudentByProfile(ctx context.Context, profileID uuid.UUID) (*model.Student, error) {
	query := `
		SELECT id, profile_id, instructor_id, is_active, created_at
		FROM students
		WHERE profile_id = $1
	`

	var student model.Student
	err := r.QueryRow(ctx, query, profileID).Scan(
		&student.ID,
		&student.ProfileID,
		&student.InstructorID,
		&student.IsActive,
		&student.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by profile: %w", err)
	}

	return &student, nil
}
