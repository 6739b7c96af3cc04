// Package audit раздаёт события аудита по приёмникам (Postgres, Kafka).
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"go.uber.org/zap"
)

// Sink приёмник событий аудита
type Sink interface {
	WriteAudit(ctx context.Context, event model.AuditEvent) error
}

// Emitter пишет событие во все приёмники. Ошибка приёмника логируется и не
// возвращается вызывающему: аудит не откатывает уже выполненную операцию.
type Emitter struct {
	sinks  []Sink
	now    func() time.Time
	logger *zap.Logger
}

func NewEmitter(logger *zap.Logger, sinks ...Sink) *Emitter {
	return &Emitter{
		sinks:  sinks,
		now:    time.Now,
		logger: logger,
	}
}

// Emit дополняет событие id и временем и отправляет его в приёмники
func (e *Emitter) Emit(ctx context.Context, event model.AuditEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now().UTC()
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.Severity == "" {
		event.Severity = model.SeverityInfo
	}

	// запрос мог уже завершиться, событие всё равно должно быть записано
	ctx = context.WithoutCancel(ctx)

	for _, sink := range e.sinks {
		if err := sink.WriteAudit(ctx, event); err != nil {
			e.logger.Warn("Failed to write audit event",
				zap.String("event_id", event.ID.String()),
				zap.String("action", event.Action),
				zap.String("entity_id", event.EntityID.String()),
				zap.Error(err))
		}
	}
}
