package service

import "time"

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// ClockFunc позволяет использовать функцию как Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock возвращает реальное время
func SystemClock() Clock {
	return ClockFunc(time.Now)
}
