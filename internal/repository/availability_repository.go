package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository/base"
	"go.uber.org/zap"
)

const ruleColumns = `id, instructor_id, day_of_week, start_time, end_time, is_active, created_at, updated_at`

// AvailabilityRepository управляет еженедельными правилами и исключениями по датам
type AvailabilityRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewAvailabilityRepository создаёт новый репозиторий
func NewAvailabilityRepository(pool *pgxpool.Pool, logger *zap.Logger) *AvailabilityRepository {
	return &AvailabilityRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

func scanRule(row pgx.Row) (*model.AvailabilityRule, error) {
	rule := &model.AvailabilityRule{}
	err := row.Scan(
		&rule.ID,
		&rule.InstructorID,
		&rule.DayOfWeek,
		&rule.StartTime,
		&rule.EndTime,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	return rule, err
}

// CreateRule создаёт новое правило доступности
func (r *AvailabilityRepository) CreateRule(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (instructor_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		rule.InstructorID,
		rule.DayOfWeek,
		rule.StartTime,
		rule.EndTime,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}

	return nil
}

// ActiveRulesForDay получает активные правила инструктора на день недели.
// Порядок стабилен: по времени создания, затем по id.
func (r *AvailabilityRepository) ActiveRulesForDay(ctx context.Context, instructorID uuid.UUID, dayOfWeek int) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM availability_rules
		WHERE instructor_id = $1 AND day_of_week = $2 AND is_active = true
		ORDER BY created_at, id
	`

	rows, err := r.Query(ctx, query, instructorID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("get active rules for day: %w", err)
	}
	defer rows.Close()

	var rules []*model.AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability rules: %w", err)
	}

	return rules, nil
}

// DeactivateRule выключает правило инструктора. Возвращает false, если правило не найдено.
func (r *AvailabilityRepository) DeactivateRule(ctx context.Context, instructorID, ruleID uuid.UUID) (bool, error) {
	query := `
		UPDATE availability_rules
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND instructor_id = $2
	`

	affected, err := r.ExecAffected(ctx, query, ruleID, instructorID)
	if err != nil {
		return false, fmt.Errorf("deactivate availability rule: %w", err)
	}

	r.logger.Debug("Availability rule deactivated",
		zap.String("rule_id", ruleID.String()),
		zap.Int64("affected", affected))

	return affected > 0, nil
}

// UpsertOverride создаёт исключение на дату или заменяет существующее
func (r *AvailabilityRepository) UpsertOverride(ctx context.Context, override *model.AvailabilityOverride) error {
	query := `
		INSERT INTO availability_overrides (instructor_id, date, is_available, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (instructor_id, date) DO UPDATE
		SET is_available = EXCLUDED.is_available,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			reason = EXCLUDED.reason
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx,
		query,
		override.InstructorID,
		override.Date,
		override.IsAvailable,
		override.StartTime,
		override.EndTime,
		override.Reason,
	).Scan(&override.ID, &override.CreatedAt)

	if err != nil {
		return fmt.Errorf("upsert availability override: %w", err)
	}

	return nil
}

// OverrideForDate получает исключение инструктора на календарную дату
func (r *AvailabilityRepository) OverrideForDate(ctx context.Context, instructorID uuid.UUID, date time.Time) (*model.AvailabilityOverride, error) {
	query := `
		SELECT id, instructor_id, date, is_available, start_time, end_time, reason, created_at
		FROM availability_overrides
		WHERE instructor_id = $1 AND date = $2
	`

	override := &model.AvailabilityOverride{}
	err := r.QueryRow(ctx, query, instructorID, date).Scan(
		&override.ID,
		&override.InstructorID,
		&override.Date,
		&override.IsAvailable,
		&override.StartTime,
		&override.EndTime,
		&override.Reason,
		&override.CreatedAt,
	)

	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get availability override: %w", err)
	}

	return override, nil
}
