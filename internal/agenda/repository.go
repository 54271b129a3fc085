package agenda

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

// Repository defines the interface for capacity slot storage
type Repository interface {
	CreateIfAbsent(ctx context.Context, slot *Slot) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetByDateZone(ctx context.Context, date time.Time, zone geo.Zone) (*Slot, error)
	Override(ctx context.Context, id uuid.UUID, morningCap, afternoonCap int, enabled bool) (*Slot, error)
	ListUpcoming(ctx context.Context, zone geo.Zone, from time.Time) ([]*Slot, error)
}

type slotKey struct {
	date time.Time
	zone geo.Zone
}

// InMemoryRepository is an in-memory implementation of Repository used by
// tests and local development.
type InMemoryRepository struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*Slot
	byKey map[slotKey]uuid.UUID
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:  make(map[uuid.UUID]*Slot),
		byKey: make(map[slotKey]uuid.UUID),
	}
}

// CreateIfAbsent stores a slot unless one exists for its (date, zone).
func (r *InMemoryRepository) CreateIfAbsent(ctx context.Context, slot *Slot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot.Date = turnos.DateOnly(slot.Date)
	key := slotKey{date: slot.Date, zone: slot.Zone}
	if _, exists := r.byKey[key]; exists {
		return false, nil
	}
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	clone := *slot
	r.byID[slot.ID] = &clone
	r.byKey[key] = slot.ID
	return true, nil
}

// GetByID retrieves a slot by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	clone := *s
	return &clone, nil
}

// GetByDateZone retrieves the slot for a (date, zone) pair.
func (r *InMemoryRepository) GetByDateZone(ctx context.Context, date time.Time, zone geo.Zone) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byKey[slotKey{date: turnos.DateOnly(date), zone: zone}]
	if !ok {
		return nil, ErrSlotNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

// Override mutates the capacities and enabled flag of an existing slot.
func (r *InMemoryRepository) Override(ctx context.Context, id uuid.UUID, morningCap, afternoonCap int, enabled bool) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	s.MorningCapacity = morningCap
	s.AfternoonCapacity = afternoonCap
	s.Enabled = enabled
	s.UpdatedAt = time.Now().UTC()

	clone := *s
	return &clone, nil
}

// ListUpcoming returns slots for a zone on or after the given date,
// ordered by date.
func (r *InMemoryRepository) ListUpcoming(ctx context.Context, zone geo.Zone, from time.Time) ([]*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := turnos.DateOnly(from)
	var out []*Slot
	for _, s := range r.byID {
		if s.Zone == zone && !s.Date.Before(cutoff) {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
