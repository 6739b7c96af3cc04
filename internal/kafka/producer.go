// Package kafka публикует события планировщика в Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nexdrive/scheduler/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter часть *kafka.Writer, которой пользуется Producer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	brokers    []string
	auditTopic string
	writer     messageWriter
	logger     *zap.Logger
}

func NewProducer(brokers []string, auditTopic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers:    brokers,
		auditTopic: auditTopic,
		writer:     writer,
		logger:     logger,
	}
}

// Publish сериализует payload в JSON и пишет его в topic
func (p *Producer) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}

	p.logger.Debug("Published to Kafka",
		zap.String("topic", topic),
		zap.String("key", key))
	return nil
}

// WriteAudit публикует событие аудита; ключ сообщения id сущности,
// поэтому события одной сущности попадают в одну партицию по порядку
func (p *Producer) WriteAudit(ctx context.Context, event model.AuditEvent) error {
	return p.Publish(ctx, p.auditTopic, event.EntityID.String(), event)
}

// CheckConnection проверяет что первый брокер доступен
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("connect to kafka: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
