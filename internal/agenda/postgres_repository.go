package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores capacity slots in the relational database.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("agenda: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(exec rowQuerier) *PostgresRepository {
	if exec == nil {
		panic("agenda: exec required")
	}
	return &PostgresRepository{pool: exec}
}

const slotColumns = `id, date, zone, morning_capacity, afternoon_capacity, enabled, created_at, updated_at`

func scanSlot(row interface{ Scan(dest ...any) error }) (*Slot, error) {
	var s Slot
	var zone string
	if err := row.Scan(&s.ID, &s.Date, &zone, &s.MorningCapacity, &s.AfternoonCapacity, &s.Enabled, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Zone = geo.Zone(zone)
	s.Date = turnos.DateOnly(s.Date)
	return &s, nil
}

// CreateIfAbsent inserts a slot unless one exists for its (date, zone).
// The unique index on (date, zone) makes bulk generation idempotent.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, slot *Slot) (bool, error) {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	query := `
		INSERT INTO agenda_slots (id, date, zone, morning_capacity, afternoon_capacity, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date, zone) DO NOTHING
	`
	ct, err := r.pool.Exec(ctx, query,
		slot.ID, turnos.DateOnly(slot.Date), slot.Zone,
		slot.MorningCapacity, slot.AfternoonCapacity, slot.Enabled,
	)
	if err != nil {
		return false, fmt.Errorf("agenda: insert slot: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// GetByID fetches a slot by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM agenda_slots WHERE id = $1`
	s, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("agenda: select slot: %w", err)
	}
	return s, nil
}

// GetByDateZone fetches the slot for a (date, zone) pair.
func (r *PostgresRepository) GetByDateZone(ctx context.Context, date time.Time, zone geo.Zone) (*Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM agenda_slots WHERE date = $1 AND zone = $2`
	s, err := scanSlot(r.pool.QueryRow(ctx, query, turnos.DateOnly(date), zone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("agenda: select slot by date/zone: %w", err)
	}
	return s, nil
}

// Override mutates the capacities and enabled flag of an existing slot.
func (r *PostgresRepository) Override(ctx context.Context, id uuid.UUID, morningCap, afternoonCap int, enabled bool) (*Slot, error) {
	query := `
		UPDATE agenda_slots
		SET morning_capacity = $2, afternoon_capacity = $3, enabled = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + slotColumns
	s, err := scanSlot(r.pool.QueryRow(ctx, query, id, morningCap, afternoonCap, enabled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("agenda: override slot: %w", err)
	}
	return s, nil
}

// ListUpcoming returns slots for a zone on or after the given date.
func (r *PostgresRepository) ListUpcoming(ctx context.Context, zone geo.Zone, from time.Time) ([]*Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM agenda_slots
		WHERE zone = $1 AND date >= $2
		ORDER BY date
	`
	rows, err := r.pool.Query(ctx, query, zone, turnos.DateOnly(from))
	if err != nil {
		return nil, fmt.Errorf("agenda: list upcoming: %w", err)
	}
	defer rows.Close()

	var out []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("agenda: scan slot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
