package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository/base"
)

const bookingColumns = `b.id, b.instructor_id, b.student_id, b.service_id, b.scheduled_at, b.duration_minutes, b.status,
	b.meeting_location, b.notes, b.cancellation_reason, b.confirmed_at, b.cancelled_at, b.completed_at,
	b.created_at, b.updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

func scanBooking(row pgx.Row, booking *model.Booking, extra ...any) error {
	dest := []any{
		&booking.ID,
		&booking.InstructorID,
		&booking.StudentID,
		&booking.ServiceID,
		&booking.ScheduledAt,
		&booking.DurationMinutes,
		&booking.Status,
		&booking.MeetingLocation,
		&booking.Notes,
		&booking.CancellationReason,
		&booking.ConfirmedAt,
		&booking.CancelledAt,
		&booking.CompletedAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func collectBookings(rows pgx.Rows) ([]*model.Booking, error) {
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// CreateBooking создаёт новое бронирование. Пересечение с активным бронированием
// инструктора отклоняется ограничением bookings_no_overlap и возвращается как ErrOverlap.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (instructor_id, student_id, service_id, scheduled_at, duration_minutes, ends_at,
			status, meeting_location, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.InstructorID,
		booking.StudentID,
		booking.ServiceID,
		booking.ScheduledAt,
		booking.DurationMinutes,
		booking.EndsAt(),
		booking.Status,
		booking.MeetingLocation,
		booking.Notes,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsOverlapViolation(err) {
			return ErrOverlap
		}
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetBooking получает бронирование по ID
func (r *BookingRepository) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	var booking model.Booking
	err := scanBooking(r.QueryRow(ctx, query, id), &booking)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &booking, nil
}

// GetBookingDetails получает бронирование вместе с услугой, студентом и инструктором
func (r *BookingRepository) GetBookingDetails(ctx context.Context, id uuid.UUID) (*model.BookingDetails, error) {
	query := `
		SELECT ` + bookingColumns + `,
			s.id, s.instructor_id, s.name, COALESCE(s.description, ''), s.duration_minutes, s.price_cents, s.is_active, s.created_at,
			sp.id, sp.first_name, COALESCE(sp.last_name, ''), sp.email, COALESCE(sp.phone, ''),
			ip.id, ip.first_name, COALESCE(ip.last_name, ''), ip.email, COALESCE(ip.phone, ''), i.telegram_chat_id
		FROM bookings b
		JOIN services s ON s.id = b.service_id
		JOIN students st ON st.id = b.student_id
		JOIN profiles sp ON sp.id = st.profile_id
		JOIN instructors i ON i.id = b.instructor_id
		JOIN profiles ip ON ip.id = i.profile_id
		WHERE b.id = $1
	`

	var (
		details    model.BookingDetails
		service    model.Service
		student    model.PersonDisplay
		instructor model.PersonDisplay
	)
	err := scanBooking(r.QueryRow(ctx, query, id), &details.Booking,
		&service.ID, &service.InstructorID, &service.Name, &service.Description,
		&service.DurationMinutes, &service.PriceCents, &service.IsActive, &service.CreatedAt,
		&student.ID, &student.FirstName, &student.LastName, &student.Email, &student.Phone,
		&instructor.ID, &instructor.FirstName, &instructor.LastName, &instructor.Email, &instructor.Phone,
		&instructor.TelegramChatID,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking details: %w", err)
	}

	details.Service = &service
	details.Student = &student
	details.Instructor = &instructor

	return &details, nil
}

// ActiveBookingsBetween получает pending/confirmed бронирования инструктора,
// пересекающиеся с интервалом [from, to)
func (r *BookingRepository) ActiveBookingsBetween(ctx context.Context, instructorID uuid.UUID, from, to time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.instructor_id = $1
		  AND b.status IN ('pending', 'confirmed')
		  AND b.scheduled_at < $3
		  AND b.ends_at > $2
		ORDER BY b.scheduled_at
	`

	rows, err := r.Query(ctx, query, instructorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get active bookings: %w", err)
	}

	return collectBookings(rows)
}

// UpdateBookingStatus сохраняет статус и связанные с ним отметки времени
func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2,
			cancellation_reason = $3,
			confirmed_at = $4,
			cancelled_at = $5,
			completed_at = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.ID,
		booking.Status,
		booking.CancellationReason,
		booking.ConfirmedAt,
		booking.CancelledAt,
		booking.CompletedAt,
	).Scan(&booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrNotFound
		}
		if base.IsOverlapViolation(err) {
			return ErrOverlap
		}
		return fmt.Errorf("update booking status: %w", err)
	}

	return nil
}

// ListInstructorBookings получает бронирования инструктора, новые первыми
func (r *BookingRepository) ListInstructorBookings(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.instructor_id = $1
		ORDER BY b.scheduled_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.Query(ctx, query, instructorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get bookings by instructor: %w", err)
	}

	return collectBookings(rows)
}

// ListStudentBookings получает бронирования студента, новые первыми
func (r *BookingRepository) ListStudentBookings(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.student_id = $1
		ORDER BY b.scheduled_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.Query(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get bookings by student: %w", err)
	}

	return collectBookings(rows)
}
