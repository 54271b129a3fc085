package turnos

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage. Transition is
// the only mutation path after creation: implementations must serialize it
// per appointment so a sweep and a manual staff action can never interleave
// their read-then-write on the same row.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Transition(ctx context.Context, id uuid.UUID, apply func(*Appointment) error) (*Appointment, error)
	CountActive(ctx context.Context, slotID uuid.UUID, shift Shift) (int, error)
	HasActiveForEstablishment(ctx context.Context, establishmentID uuid.UUID, onOrAfter time.Time) (bool, error)
	ListOverdue(ctx context.Context, state State, before time.Time) ([]*Appointment, error)
	ListConfirmedOn(ctx context.Context, date time.Time) ([]*Appointment, error)
	CountByState(ctx context.Context) (map[State]int, error)
}

// InMemoryRepository is an in-memory implementation of Repository used by
// tests and local development.
type InMemoryRepository struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

// Create stores a new appointment.
func (r *InMemoryRepository) Create(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.SlotDate = DateOnly(a.SlotDate)

	clone := *a
	r.appointments[a.ID] = &clone
	return nil
}

// GetByID retrieves an appointment by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

// Transition applies a mutation under the repository lock. When apply fails
// the stored appointment is left untouched.
func (r *InMemoryRepository) Transition(ctx context.Context, id uuid.UUID, apply func(*Appointment) error) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	work := *stored
	if err := apply(&work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now().UTC()
	r.appointments[id] = &work

	clone := work
	return &clone, nil
}

// CountActive counts appointments holding a spot in the given slot+shift.
func (r *InMemoryRepository) CountActive(ctx context.Context, slotID uuid.UUID, shift Shift) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, a := range r.appointments {
		if a.SlotID == slotID && a.Shift == shift && a.State.Active() {
			count++
		}
	}
	return count, nil
}

// HasActiveForEstablishment reports whether the establishment already holds
// a pending or confirmed appointment on or after the given date.
func (r *InMemoryRepository) HasActiveForEstablishment(ctx context.Context, establishmentID uuid.UUID, onOrAfter time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from := DateOnly(onOrAfter)
	for _, a := range r.appointments {
		if a.EstablishmentID != establishmentID {
			continue
		}
		if a.State != StateRequested && a.State != StateConfirmed {
			continue
		}
		if !a.SlotDate.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

// ListOverdue returns appointments in the given state whose slot date is
// strictly before the cutoff.
func (r *InMemoryRepository) ListOverdue(ctx context.Context, state State, before time.Time) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := DateOnly(before)
	var out []*Appointment
	for _, a := range r.appointments {
		if a.State == state && a.SlotDate.Before(cutoff) {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

// ListConfirmedOn returns confirmed appointments scheduled for the given day.
func (r *InMemoryRepository) ListConfirmedOn(ctx context.Context, date time.Time) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := DateOnly(date)
	var out []*Appointment
	for _, a := range r.appointments {
		if a.State == StateConfirmed && a.SlotDate.Equal(day) {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

// CountByState tallies appointments per lifecycle state.
func (r *InMemoryRepository) CountByState(ctx context.Context) (map[State]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[State]int)
	for _, a := range r.appointments {
		counts[a.State]++
	}
	return counts, nil
}
