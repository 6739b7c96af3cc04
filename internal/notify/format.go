package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/nexdrive/scheduler/internal/model"
)

// StatusDisplay отображение статуса бронирования
type StatusDisplay struct {
	Emoji string
	Text  string
}

// BookingStatusDisplay возвращает emoji и текст для статуса бронирования
func BookingStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:     {"⏳", "Pending"},
		model.BookingStatusConfirmed:   {"✅", "Confirmed"},
		model.BookingStatusInProgress:  {"🚗", "In progress"},
		model.BookingStatusCompleted:   {"✔️", "Completed"},
		model.BookingStatusCancelled:   {"❌", "Cancelled"},
		model.BookingStatusNoShow:      {"🚫", "No-show"},
		model.BookingStatusRescheduled: {"🔁", "Rescheduled"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Unknown"}
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}

// FormatPrice форматирует цену из центов
func FormatPrice(priceInCents int) string {
	if priceInCents%100 == 0 {
		return fmt.Sprintf("$%d", priceInCents/100)
	}
	return fmt.Sprintf("$%d.%02d", priceInCents/100, priceInCents%100)
}

func headline(action string) string {
	switch action {
	case model.ActionBookingCreated:
		return "New lesson request"
	case model.BookingStatusAction(model.BookingStatusConfirmed):
		return "Lesson confirmed"
	case model.BookingStatusAction(model.BookingStatusCancelled):
		return "Lesson cancelled"
	case model.BookingStatusAction(model.BookingStatusCompleted):
		return "Lesson completed"
	case model.BookingStatusAction(model.BookingStatusNoShow):
		return "Student did not show up"
	}
	return "Booking updated"
}

// FormatBookingMessage текст уведомления в HTML-разметке Telegram
func FormatBookingMessage(action string, details *model.BookingDetails, loc *time.Location) string {
	status := BookingStatusDisplay(details.Status)
	start := details.ScheduledAt.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>\n\n", status.Emoji, headline(action))
	fmt.Fprintf(&b, "📅 %s\n", start.Format("Mon 02 Jan 2006"))
	fmt.Fprintf(&b, "🕐 %s-%s (%s)\n", start.Format("15:04"), details.EndsAt().In(loc).Format("15:04"),
		FormatDuration(details.DurationMinutes))

	if details.Service != nil {
		fmt.Fprintf(&b, "📚 %s, %s\n", html.EscapeString(details.Service.Name), FormatPrice(details.Service.PriceCents))
	}
	if details.Student != nil {
		name := strings.TrimSpace(details.Student.FirstName + " " + details.Student.LastName)
		fmt.Fprintf(&b, "👤 %s\n", html.EscapeString(name))
	}
	if details.MeetingLocation != nil && *details.MeetingLocation != "" {
		fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(*details.MeetingLocation))
	}
	if details.CancellationReason != nil && *details.CancellationReason != "" {
		fmt.Fprintf(&b, "💬 %s\n", html.EscapeString(*details.CancellationReason))
	}
	fmt.Fprintf(&b, "\n📊 Status: %s", status.Text)

	return b.String()
}
