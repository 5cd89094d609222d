// Package memory is an in-process record store used by tests and by the
// server when store.driver is "memory".
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]domain.User
	appointments map[uuid.UUID]domain.Appointment

	locksMu     sync.Mutex
	doctorLocks map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]domain.User),
		appointments: make(map[uuid.UUID]domain.Appointment),
		doctorLocks:  make(map[uuid.UUID]*sync.Mutex),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) InsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.User{}, store.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.User{}, err
		}
		u.ID = id
	}
	if _, ok := s.users[u.ID]; ok {
		return domain.User{}, store.ErrDuplicate
	}
	now := s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (s *Store) FindAppointmentByID(ctx context.Context, id uuid.UUID, activeOnly bool) (domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appointmentLocked(id, activeOnly)
}

func (s *Store) appointmentLocked(id uuid.UUID, activeOnly bool) (domain.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok || (activeOnly && !a.Active()) {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) FindAppointmentsByDoctorInRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time, activeOnly bool) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectLocked(func(a domain.Appointment) bool {
		if activeOnly && !a.Active() {
			return false
		}
		return a.DoctorID == doctorID && !a.StartTime.Before(start) && !a.StartTime.After(end)
	}), nil
}

func (s *Store) FindAppointments(ctx context.Context, activeOnly bool) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectLocked(func(a domain.Appointment) bool {
		return !activeOnly || a.Active()
	}), nil
}

func (s *Store) FindAppointmentsFiltered(ctx context.Context, f store.AppointmentFilter) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectLocked(func(a domain.Appointment) bool {
		if !a.Active() {
			return false
		}
		if f.Day != nil && !domain.SameDay(a.StartTime, *f.Day) {
			return false
		}
		if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
			return false
		}
		if f.Reason != "" && !strings.Contains(a.Reason, f.Reason) {
			return false
		}
		return true
	}), nil
}

func (s *Store) selectLocked(keep func(domain.Appointment) bool) []domain.Appointment {
	out := make([]domain.Appointment, 0)
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (s *Store) InDoctorTransaction(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx) error) error {
	lock := s.doctorLock(doctorID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &bookingTx{s: s, pending: make(map[uuid.UUID]domain.Appointment)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) doctorLock(doctorID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.doctorLocks[doctorID]
	if !ok {
		l = &sync.Mutex{}
		s.doctorLocks[doctorID] = l
	}
	return l
}

// commit applies staged writes, refusing any that would break the
// no-overlap rule, the same way the database exclusion constraint does.
func (s *Store) commit(tx *bookingTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[uuid.UUID]domain.Appointment, len(s.appointments)+len(tx.pending))
	for id, a := range s.appointments {
		merged[id] = a
	}
	for id, a := range tx.pending {
		merged[id] = a
	}

	for _, a := range tx.pending {
		if !a.Active() {
			continue
		}
		for _, other := range merged {
			if other.ID == a.ID || !other.Active() || other.DoctorID != a.DoctorID {
				continue
			}
			if domain.SlotsOverlap(other.StartTime, a.StartTime) {
				return store.ErrConflict
			}
		}
	}
	for id, a := range tx.pending {
		s.appointments[id] = a
	}
	return nil
}

type bookingTx struct {
	s       *Store
	pending map[uuid.UUID]domain.Appointment
}

func (t *bookingTx) FindUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return t.s.FindUserByID(ctx, id)
}

func (t *bookingTx) FindAppointmentByID(ctx context.Context, id uuid.UUID, activeOnly bool) (domain.Appointment, error) {
	if a, ok := t.pending[id]; ok {
		if activeOnly && !a.Active() {
			return domain.Appointment{}, store.ErrNotFound
		}
		return a, nil
	}
	return t.s.FindAppointmentByID(ctx, id, activeOnly)
}

func (t *bookingTx) FindAppointmentsByDoctorInRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time, activeOnly bool) ([]domain.Appointment, error) {
	rows, err := t.s.FindAppointmentsByDoctorInRange(ctx, doctorID, start, end, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Appointment, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, a := range rows {
		if staged, ok := t.pending[a.ID]; ok {
			a = staged
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	for id, a := range t.pending {
		if _, ok := seen[id]; !ok {
			out = append(out, a)
		}
	}

	filtered := out[:0]
	for _, a := range out {
		if activeOnly && !a.Active() {
			continue
		}
		if a.DoctorID != doctorID || a.StartTime.Before(start) || a.StartTime.After(end) {
			continue
		}
		filtered = append(filtered, a)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].StartTime.Before(filtered[j].StartTime)
	})
	return filtered, nil
}

func (t *bookingTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
	}
	if _, err := t.FindAppointmentByID(ctx, appt.ID, false); err == nil {
		return domain.Appointment{}, store.ErrDuplicate
	}
	now := t.s.now()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	if appt.UpdatedAt.IsZero() {
		appt.UpdatedAt = now
	}
	t.pending[appt.ID] = appt
	return appt, nil
}

func (t *bookingTx) SaveAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if _, err := t.FindAppointmentByID(ctx, appt.ID, false); err != nil {
		return domain.Appointment{}, err
	}
	appt.UpdatedAt = t.s.now()
	t.pending[appt.ID] = appt
	return appt, nil
}
