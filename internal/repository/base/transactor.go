package base

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transactor выполняет функции в транзакции под advisory lock инструктора
type Transactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// WithinInstructorLock открывает транзакцию, берёт pg_advisory_xact_lock по id инструктора
// и выполняет fn. Лок снимается при commit/rollback.
func (t *Transactor) WithinInstructorLock(ctx context.Context, instructorID uuid.UUID, fn func(ctx context.Context) error) error {
	// Уже внутри транзакции: берём лок в ней же
	if tx, ok := TxFromContext(ctx); ok {
		if err := lockInstructor(ctx, tx, instructorID); err != nil {
			return err
		}
		return fn(ctx)
	}

	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockInstructor(ctx, tx, instructorID); err != nil {
		return err
	}

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func lockInstructor(ctx context.Context, tx pgx.Tx, instructorID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, instructorID.String())
	if err != nil {
		return fmt.Errorf("lock instructor: %w", err)
	}
	return nil
}
