package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository/base"
)

// AuditRepository пишет в append-only таблицу audit_log. UPDATE и DELETE не предусмотрены.
type AuditRepository struct {
	*base.Repository
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{Repository: base.NewRepository(pool)}
}

// WriteAudit добавляет событие в журнал
func (r *AuditRepository) WriteAudit(ctx context.Context, event model.AuditEvent) error {
	query := `
		INSERT INTO audit_log (id, actor_profile_id, action, entity_type, entity_id, payload, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	_, err := r.Conn(ctx).Exec(
		ctx, query,
		event.ID,
		event.ActorProfileID,
		event.Action,
		event.EntityType,
		event.EntityID,
		payload,
		event.Severity,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}

	return nil
}
