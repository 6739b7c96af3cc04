package repository

import "errors"

// ErrOverlap бронирование пересекается с активным бронированием инструктора
var ErrOverlap = errors.New("booking overlaps an active booking")

// ErrNotFound изменяемая запись не существует
var ErrNotFound = errors.New("record not found")
