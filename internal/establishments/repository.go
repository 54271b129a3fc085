package establishments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
)

// Repository defines the interface for establishment storage
type Repository interface {
	Create(ctx context.Context, e *Establishment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Establishment, error)
	Owner(ctx context.Context, id uuid.UUID) (*Owner, error)
	SetLocation(ctx context.Context, id uuid.UUID, point geo.Point) error
}

// InMemoryRepository is an in-memory implementation of Repository used by
// tests and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Establishment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[uuid.UUID]*Establishment)}
}

// Create stores a new establishment.
func (r *InMemoryRepository) Create(ctx context.Context, e *Establishment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	clone := *e
	r.entries[e.ID] = &clone
	return nil
}

// GetByID retrieves an establishment by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Establishment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrEstablishmentNotFound
	}
	clone := *e
	return &clone, nil
}

// Owner resolves the owning account for notifications and ownership checks.
func (r *InMemoryRepository) Owner(ctx context.Context, id uuid.UUID) (*Owner, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Owner{AccountID: e.OwnerAccountID, Name: e.OwnerName, Email: e.OwnerEmail}, nil
}

// SetLocation pins the verified geographic point of an establishment.
func (r *InMemoryRepository) SetLocation(ctx context.Context, id uuid.UUID, point geo.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return ErrEstablishmentNotFound
	}
	p := point
	e.Location = &p
	e.UpdatedAt = time.Now().UTC()
	return nil
}
