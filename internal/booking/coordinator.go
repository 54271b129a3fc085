package booking

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

// Coordinator atomically checks remaining capacity and persists the
// appointment. Counts are derived from appointment rows at reservation
// time; implementations must ensure no interleaving between the count
// and the insert for the same slot.
type Coordinator interface {
	Reserve(ctx context.Context, slot *agenda.Slot, a *turnos.Appointment) error
}

// MemoryCoordinator serializes reservations per slot with a mutex.
type MemoryCoordinator struct {
	repo turnos.Repository

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewMemoryCoordinator(repo turnos.Repository) *MemoryCoordinator {
	return &MemoryCoordinator{
		repo:  repo,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (c *MemoryCoordinator) slotLock(id uuid.UUID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

func (c *MemoryCoordinator) Reserve(ctx context.Context, slot *agenda.Slot, a *turnos.Appointment) error {
	l := c.slotLock(slot.ID)
	l.Lock()
	defer l.Unlock()

	occupied, err := c.repo.CountActive(ctx, slot.ID, a.Shift)
	if err != nil {
		return err
	}
	capacity := slot.CapacityFor(a.Shift)
	if occupied >= capacity {
		return &CapacityError{SlotID: slot.ID, Shift: a.Shift, Capacity: capacity}
	}
	return c.repo.Create(ctx, a)
}
