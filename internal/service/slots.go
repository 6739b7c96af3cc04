package service

import (
	"fmt"
	"time"

	"github.com/nexdrive/scheduler/internal/model"
)

// GenerateSlots нарезает окно [start, end) даты date на слоты длиной durationMinutes.
// Время окна трактуется в часовом поясе date; неполный хвост окна отбрасывается.
func GenerateSlots(date time.Time, start, end string, durationMinutes int) ([]model.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidWindow, durationMinutes)
	}
	from, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	to, err := parseClock(end)
	if err != nil {
		return nil, err
	}
	if from >= to {
		return nil, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow, start, end)
	}

	// границы окна переводятся в моменты времени один раз; шаг идёт по реальному времени,
	// поэтому в дни перехода на летнее время слоты не дублируются
	loc := date.Location()
	windowStart := time.Date(date.Year(), date.Month(), date.Day(), from/60, from%60, 0, 0, loc)
	windowEnd := time.Date(date.Year(), date.Month(), date.Day(), to/60, to%60, 0, 0, loc)

	duration := time.Duration(durationMinutes) * time.Minute
	slots := make([]model.TimeSlot, 0, max(int(windowEnd.Sub(windowStart)/duration), 0))
	for slotStart := windowStart; !slotStart.Add(duration).After(windowEnd); slotStart = slotStart.Add(duration) {
		slots = append(slots, model.TimeSlot{
			Start:     slotStart,
			End:       slotStart.Add(duration),
			Available: true,
		})
	}
	return slots, nil
}
