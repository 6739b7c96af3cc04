package service

import "time"

// Settings параметры движка, приходят из конфигурации
type Settings struct {
	Location               *time.Location // часовой пояс по умолчанию
	HorizonDays            int
	DefaultSlotMinutes     int
	CancellationNotice     time.Duration
	RejectOverlappingRules bool
	SlotHoldTTL            time.Duration
}

// DefaultSettings значения по умолчанию
func DefaultSettings() Settings {
	return Settings{
		Location:               time.UTC,
		HorizonDays:            56,
		DefaultSlotMinutes:     60,
		CancellationNotice:     24 * time.Hour,
		RejectOverlappingRules: true,
		SlotHoldTTL:            30 * time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Location == nil {
		s.Location = d.Location
	}
	if s.HorizonDays <= 0 {
		s.HorizonDays = d.HorizonDays
	}
	if s.DefaultSlotMinutes <= 0 {
		s.DefaultSlotMinutes = d.DefaultSlotMinutes
	}
	if s.CancellationNotice <= 0 {
		s.CancellationNotice = d.CancellationNotice
	}
	if s.SlotHoldTTL <= 0 {
		s.SlotHoldTTL = d.SlotHoldTTL
	}
	return s
}
