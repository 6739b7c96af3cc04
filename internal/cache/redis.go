// Package cache держит краткосрочные блокировки слотов в Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SlotLock struct {
	client *redis.Client
}

func NewSlotLock(cfg RedisConfig) *SlotLock {
	return &SlotLock{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

// AcquireSlotLock возвращает false, если слот уже удерживается другим запросом
func (c *SlotLock) AcquireSlotLock(ctx context.Context, instructorID uuid.UUID, start time.Time, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotLockKey(instructorID, start), "locked", ttl).Result()
}

func (c *SlotLock) ReleaseSlotLock(ctx context.Context, instructorID uuid.UUID, start time.Time) error {
	return c.client.Del(ctx, slotLockKey(instructorID, start)).Err()
}

func (c *SlotLock) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SlotLock) Close() error {
	return c.client.Close()
}

func slotLockKey(instructorID uuid.UUID, start time.Time) string {
	return fmt.Sprintf("lock:instructor:%s:slot:%d", instructorID, start.Unix())
}
