// Package notify отправляет инструкторам уведомления о бронированиях в Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/nexdrive/scheduler/internal/model"
	"go.uber.org/zap"
)

// messageSender часть *bot.Bot, которой пользуется TelegramNotifier
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TelegramNotifier struct {
	sender   messageSender
	location *time.Location
	logger   *zap.Logger
}

// NewTelegramNotifier создаёт бота только для отправки сообщений, без long polling
func NewTelegramNotifier(token string, location *time.Location, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newTelegramNotifier(b, location, logger), nil
}

func newTelegramNotifier(sender messageSender, location *time.Location, logger *zap.Logger) *TelegramNotifier {
	if location == nil {
		location = time.UTC
	}
	return &TelegramNotifier{
		sender:   sender,
		location: location,
		logger:   logger,
	}
}

// NotifyBooking пишет инструктору, если у него привязан Telegram
func (n *TelegramNotifier) NotifyBooking(ctx context.Context, action string, details *model.BookingDetails) error {
	if details == nil || details.Instructor == nil || details.Instructor.TelegramChatID == nil {
		return nil
	}

	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *details.Instructor.TelegramChatID,
		Text:      FormatBookingMessage(action, details, n.location),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Debug("Booking notification sent",
		zap.String("booking_id", details.ID.String()),
		zap.String("action", action),
		zap.Int64("chat_id", *details.Instructor.TelegramChatID))
	return nil
}
