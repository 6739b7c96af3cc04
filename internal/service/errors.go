package service

import (
	"errors"
	"fmt"
)

// Kind класс ошибки, по которому вызывающий слой выбирает ответ
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindForbidden
	KindConflict
	KindLateCancellation
	KindDependencyUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindLateCancellation:
		return "late_cancellation"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	default:
		return "internal"
	}
}

// Error доменная ошибка планировщика
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

var (
	ErrInvalidInput      = newError(KindInvalidInput, "invalid_input", "invalid input")
	ErrInvalidDate       = newError(KindInvalidInput, "invalid_date", "invalid date")
	ErrInvalidWindow     = newError(KindInvalidInput, "invalid_window", "invalid time window")
	ErrInvalidTransition = newError(KindInvalidInput, "invalid_transition", "status transition not allowed")

	ErrInstructorNotFound = newError(KindNotFound, "instructor_not_found", "instructor not found")
	ErrStudentNotFound    = newError(KindNotFound, "student_not_found", "student not found")
	ErrServiceNotFound    = newError(KindNotFound, "service_not_found", "service not found")
	ErrBookingNotFound    = newError(KindNotFound, "booking_not_found", "booking not found")
	ErrRuleNotFound       = newError(KindNotFound, "rule_not_found", "availability rule not found")

	ErrForbidden = newError(KindForbidden, "forbidden", "action not permitted for this role")

	ErrSlotUnavailable = newError(KindConflict, "slot_unavailable", "time slot is no longer available")
	ErrRuleOverlap     = newError(KindConflict, "rule_overlap", "availability rule overlaps an existing rule")

	ErrLateCancellation = newError(KindLateCancellation, "late_cancellation", "cancellation is too close to the lesson start")

	ErrStoreUnavailable = newError(KindDependencyUnavailable, "store_unavailable", "storage is unavailable")
)

// KindOf определяет класс ошибки; неизвестные ошибки считаются внутренними
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// CodeOf возвращает машиночитаемый код доменной ошибки
func CodeOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "internal"
}

// invalid дополняет ErrInvalidInput пояснением, сохраняя класс ошибки
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeErr оборачивает ошибку хранилища, если она ещё не доменная
func storeErr(op string, err error) error {
	if KindOf(err) != KindInternal {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
