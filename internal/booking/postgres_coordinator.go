package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresCoordinator takes a row lock on the agenda slot, counts live
// occupancy inside the transaction and inserts the appointment under the
// same lock. Concurrent reservations on the same slot serialize on the
// FOR UPDATE lock, so the shift can never be overbooked.
type PostgresCoordinator struct {
	pool txBeginner
}

func NewPostgresCoordinator(pool *pgxpool.Pool) *PostgresCoordinator {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &PostgresCoordinator{pool: pool}
}

func newPostgresCoordinatorWithDB(d txBeginner) *PostgresCoordinator {
	if d == nil {
		panic("booking: db required")
	}
	return &PostgresCoordinator{pool: d}
}

func (c *PostgresCoordinator) Reserve(ctx context.Context, slot *agenda.Slot, a *turnos.Appointment) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("booking: begin reservation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The lock pins the slot row until commit. Capacities are re-read under
	// the lock so a concurrent override cannot be overshot either.
	var morningCap, afternoonCap int
	var enabled bool
	lock := `SELECT morning_capacity, afternoon_capacity, enabled FROM agenda_slots WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, lock, slot.ID).Scan(&morningCap, &afternoonCap, &enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return agenda.ErrSlotNotFound
		}
		return fmt.Errorf("booking: lock slot: %w", err)
	}
	if !enabled {
		return ErrSlotClosed
	}

	capacity := morningCap
	if a.Shift == turnos.ShiftAfternoon {
		capacity = afternoonCap
	}

	count := `
		SELECT COUNT(*)
		FROM appointments
		WHERE slot_id = $1 AND shift = $2 AND state NOT IN ('CANCELLED', 'REJECTED')
	`
	var occupied int
	if err := tx.QueryRow(ctx, count, slot.ID, a.Shift).Scan(&occupied); err != nil {
		return fmt.Errorf("booking: count occupancy: %w", err)
	}
	if occupied >= capacity {
		return &CapacityError{SlotID: slot.ID, Shift: a.Shift, Capacity: capacity}
	}

	if err := turnos.CreateIn(ctx, tx, a); err != nil {
		// The partial unique index on live appointments rejects a second
		// request that raced past the service-level check.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrActiveAppointment
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("booking: commit reservation: %w", err)
	}
	return nil
}
