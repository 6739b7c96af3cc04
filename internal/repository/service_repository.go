package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository/base"
)

// ServiceRepository читает каталог услуг (типов занятий)
type ServiceRepository struct {
	*base.Repository
}

func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{Repository: base.NewRepository(pool)}
}

const serviceColumns = `id, instructor_id, name, COALESCE(description, ''), duration_minutes, price_cents, is_active, created_at`

func scanService(row pgx.Row) (*model.Service, error) {
	service := &model.Service{}
	err := row.Scan(
		&service.ID,
		&service.InstructorID,
		&service.Name,
		&service.Description,
		&service.DurationMinutes,
		&service.PriceCents,
		&service.IsActive,
		&service.CreatedAt,
	)
	return service, err
}

// GetService получает услугу по ID
func (r *ServiceRepository) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	service, err := scanService(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get service by id: %w", err)
	}

	return service, nil
}

// ListActiveServices получает активные услуги инструктора или всех инструкторов при uuid.Nil
func (r *ServiceRepository) ListActiveServices(ctx context.Context, instructorID uuid.UUID) ([]*model.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE is_active = true AND ($1::uuid IS NULL OR instructor_id = $1)
		ORDER BY created_at, id
	`

	var filter *uuid.UUID
	if instructorID != uuid.Nil {
		filter = &instructorID
	}

	rows, err := r.Query(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("get active services: %w", err)
	}
	defer rows.Close()

	var services []*model.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return services, nil
}

// CreateService создаёт новую услугу
func (r *ServiceRepository) CreateService(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (instructor_id, name, description, duration_minutes, price_cents, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx,
		query,
		service.InstructorID,
		service.Name,
		service.Description,
		service.DurationMinutes,
		service.PriceCents,
		service.IsActive,
	).Scan(&service.ID, &service.CreatedAt)

	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	return nil
}
