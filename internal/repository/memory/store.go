// Package memory хранит данные планировщика в памяти процесса. Реализует те же
// контракты, что и репозитории Postgres; используется в тестах.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/repository"
)

type overrideKey struct {
	instructorID uuid.UUID
	date         string
}

type Store struct {
	txMu sync.Mutex // сериализует WithinInstructorLock
	mu   sync.RWMutex

	profiles    map[uuid.UUID]model.Profile
	instructors map[uuid.UUID]model.Instructor
	students    map[uuid.UUID]model.Student
	services    map[uuid.UUID]model.Service
	rules       []model.AvailabilityRule
	overrides   map[overrideKey]model.AvailabilityOverride
	bookings    map[uuid.UUID]model.Booking
	audit       []model.AuditEvent

	seq int64 // монотонный счётчик вместо created_at для стабильного порядка
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		profiles:    make(map[uuid.UUID]model.Profile),
		instructors: make(map[uuid.UUID]model.Instructor),
		students:    make(map[uuid.UUID]model.Student),
		services:    make(map[uuid.UUID]model.Service),
		overrides:   make(map[overrideKey]model.AvailabilityOverride),
		bookings:    make(map[uuid.UUID]model.Booking),
		now:         time.Now,
	}
}

// tick возвращает монотонную отметку времени для created_at
func (s *Store) tick() time.Time {
	s.seq++
	return time.Unix(0, 0).UTC().Add(time.Duration(s.seq) * time.Millisecond)
}

// WithinInstructorLock выполняет fn эксклюзивно относительно других транзакций
func (s *Store) WithinInstructorLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

// --- seed helpers ---

func (s *Store) AddProfile(p model.Profile) model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.profiles[p.ID] = p
	return p
}

func (s *Store) AddInstructor(i model.Instructor) model.Instructor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	s.instructors[i.ID] = i
	return i
}

func (s *Store) AddStudent(st model.Student) model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	s.students[st.ID] = st
	return st
}

func (s *Store) AddService(svc model.Service) model.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = s.tick()
	}
	s.services[svc.ID] = svc
	return svc
}

// AddBooking вставляет бронирование без проверки пересечений
func (s *Store) AddBooking(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = s.tick()
	b.UpdatedAt = b.CreatedAt
	s.bookings[b.ID] = b
	return b
}

// Bookings возвращает копию всех бронирований
func (s *Store) Bookings() []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// AuditEvents возвращает копию журнала аудита
func (s *Store) AuditEvents() []model.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AuditEvent(nil), s.audit...)
}

// --- calendar ---

func (s *Store) CreateRule(_ context.Context, rule *model.AvailabilityRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule.ID = uuid.New()
	rule.CreatedAt = s.tick()
	rule.UpdatedAt = rule.CreatedAt
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *Store) ActiveRulesForDay(_ context.Context, instructorID uuid.UUID, dayOfWeek int) ([]*model.AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.AvailabilityRule
	for _, r := range s.rules {
		if r.InstructorID == instructorID && r.DayOfWeek == dayOfWeek && r.IsActive {
			rule := r
			out = append(out, &rule)
		}
	}
	return out, nil
}

func (s *Store) DeactivateRule(_ context.Context, instructorID, ruleID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == ruleID && s.rules[i].InstructorID == instructorID {
			s.rules[i].IsActive = false
			s.rules[i].UpdatedAt = s.tick()
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpsertOverride(_ context.Context, o *model.AvailabilityOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := overrideKey{instructorID: o.InstructorID, date: o.Date.Format(time.DateOnly)}
	if existing, ok := s.overrides[key]; ok {
		o.ID = existing.ID
		o.CreatedAt = existing.CreatedAt
	} else {
		o.ID = uuid.New()
		o.CreatedAt = s.tick()
	}
	s.overrides[key] = *o
	return nil
}

func (s *Store) OverrideForDate(_ context.Context, instructorID uuid.UUID, date time.Time) (*model.AvailabilityOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[overrideKey{instructorID: instructorID, date: date.Format(time.DateOnly)}]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// --- people & catalog ---

func (s *Store) GetInstructor(_ context.Context, id uuid.UUID) (*model.Instructor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.instructors[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (s *Store) GetInstructorByProfile(_ context.Context, profileID uuid.UUID) (*model.Instructor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, i := range s.instructors {
		if i.ProfileID == profileID {
			found := i
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) GetStudentByProfile(_ context.Context, profileID uuid.UUID) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.ProfileID == profileID {
			found := st
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) GetService(_ context.Context, id uuid.UUID) (*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

// ListActiveServices возвращает активные услуги в порядке создания
func (s *Store) ListActiveServices(_ context.Context, instructorID uuid.UUID) ([]*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Service
	for _, svc := range s.services {
		if svc.IsActive && (instructorID == uuid.Nil || svc.InstructorID == instructorID) {
			service := svc
			out = append(out, &service)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateService(_ context.Context, svc *model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc.ID = uuid.New()
	svc.CreatedAt = s.tick()
	s.services[svc.ID] = *svc
	return nil
}

// --- bookings ---

func (s *Store) CreateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Status.IsActive() {
		for _, existing := range s.bookings {
			if existing.InstructorID == b.InstructorID && existing.Status.IsActive() &&
				existing.Overlaps(b.ScheduledAt, b.EndsAt()) {
				return repository.ErrOverlap
			}
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.bookings[b.ID] = *b
	return nil
}

func (s *Store) GetBooking(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) GetBookingDetails(_ context.Context, id uuid.UUID) (*model.BookingDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}

	details := &model.BookingDetails{Booking: b}
	if svc, ok := s.services[b.ServiceID]; ok {
		details.Service = &svc
	}
	if st, ok := s.students[b.StudentID]; ok {
		details.Student = s.personLocked(st.ProfileID, nil)
	}
	if i, ok := s.instructors[b.InstructorID]; ok {
		details.Instructor = s.personLocked(i.ProfileID, i.TelegramChatID)
	}
	return details, nil
}

func (s *Store) personLocked(profileID uuid.UUID, chatID *int64) *model.PersonDisplay {
	p, ok := s.profiles[profileID]
	if !ok {
		return nil
	}
	return &model.PersonDisplay{
		ID:             p.ID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Phone:          p.Phone,
		TelegramChatID: chatID,
	}
}

func (s *Store) ActiveBookingsBetween(_ context.Context, instructorID uuid.UUID, from, to time.Time) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.InstructorID == instructorID && b.Status.IsActive() && b.Overlaps(from, to) {
			booking := b
			out = append(out, &booking)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (s *Store) UpdateBookingStatus(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.bookings[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Status = b.Status
	existing.CancellationReason = b.CancellationReason
	existing.ConfirmedAt = b.ConfirmedAt
	existing.CancelledAt = b.CancelledAt
	existing.CompletedAt = b.CompletedAt
	existing.UpdatedAt = s.now()
	b.UpdatedAt = existing.UpdatedAt
	s.bookings[b.ID] = existing
	return nil
}

func (s *Store) listBookings(match func(model.Booking) bool, limit, offset int) []*model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*model.Booking
	for _, b := range s.bookings {
		if match(b) {
			booking := b
			all = append(all, &booking)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ScheduledAt.After(all[j].ScheduledAt) })
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all
}

func (s *Store) ListInstructorBookings(_ context.Context, instructorID uuid.UUID, limit, offset int) ([]*model.Booking, error) {
	return s.listBookings(func(b model.Booking) bool { return b.InstructorID == instructorID }, limit, offset), nil
}

func (s *Store) ListStudentBookings(_ context.Context, studentID uuid.UUID, limit, offset int) ([]*model.Booking, error) {
	return s.listBookings(func(b model.Booking) bool { return b.StudentID == studentID }, limit, offset), nil
}

// --- audit ---

func (s *Store) WriteAudit(_ context.Context, event model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, event)
	return nil
}
