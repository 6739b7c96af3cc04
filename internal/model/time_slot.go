package model

import "time"

// TimeSlot вычисляемый интервал [Start, End), в БД не хранится
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Overlaps проверяет строгое пересечение полуинтервалов
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}
