package turnos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbtulcan/inspection-platform/internal/geo"
)

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("turnos: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithDB(d db) *PostgresRepository {
	if d == nil {
		panic("turnos: db required")
	}
	return &PostgresRepository{pool: d}
}

const appointmentColumns = `
	a.id, a.slot_id, a.establishment_id, a.inspector_id, a.shift, a.state,
	s.date, s.zone, a.contact_phone, a.location_ref, a.form_number,
	a.cancel_reason, a.observations, a.created_at, a.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		a            Appointment
		inspector    pgtype.UUID
		locationRef  pgtype.Text
		formNumber   pgtype.Text
		cancelReason pgtype.Text
		observations pgtype.Text
		zone         string
	)
	if err := row.Scan(
		&a.ID, &a.SlotID, &a.EstablishmentID, &inspector, &a.Shift, &a.State,
		&a.SlotDate, &zone, &a.ContactPhone, &locationRef, &formNumber,
		&cancelReason, &observations, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if inspector.Valid {
		id := uuid.UUID(inspector.Bytes)
		a.InspectorID = &id
	}
	a.Zone = geo.Zone(zone)
	a.LocationRef = locationRef.String
	a.FormNumber = formNumber.String
	a.CancelReason = cancelReason.String
	a.Observations = observations.String
	a.SlotDate = DateOnly(a.SlotDate)
	return &a, nil
}

// RowQuerier is the slice of pgx shared by pools and transactions that the
// insert path needs. The reservation coordinator passes its open transaction
// here so the insert happens under the slot lock.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, a *Appointment) error {
	return CreateIn(ctx, r.pool, a)
}

// CreateIn inserts an appointment through the given querier, typically an
// open transaction holding the agenda slot lock.
func CreateIn(ctx context.Context, exec RowQuerier, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	query := `
		INSERT INTO appointments (id, slot_id, establishment_id, inspector_id, shift, state,
			contact_phone, location_ref, form_number, cancel_reason, observations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	if err := exec.QueryRow(ctx, query,
		a.ID,
		a.SlotID,
		a.EstablishmentID,
		toPGUUID(a.InspectorID),
		a.Shift,
		a.State,
		a.ContactPhone,
		toPGText(a.LocationRef),
		toPGText(a.FormNumber),
		toPGText(a.CancelReason),
		toPGText(a.Observations),
	).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("turnos: insert appointment: %w", err)
	}
	return nil
}

// GetByID fetches a single appointment with its slot date and zone.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `
		SELECT` + appointmentColumns + `
		FROM appointments a
		JOIN agenda_slots s ON s.id = a.slot_id
		WHERE a.id = $1
	`
	a, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("turnos: select appointment: %w", err)
	}
	return a, nil
}

// Transition locks the appointment row, applies the mutation and persists
// the result. A failing apply rolls the transaction back, leaving the row
// exactly as it was.
func (r *PostgresRepository) Transition(ctx context.Context, id uuid.UUID, apply func(*Appointment) error) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("turnos: begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		SELECT` + appointmentColumns + `
		FROM appointments a
		JOIN agenda_slots s ON s.id = a.slot_id
		WHERE a.id = $1
		FOR UPDATE OF a
	`
	a, err := scanAppointment(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("turnos: lock appointment: %w", err)
	}

	if err := apply(a); err != nil {
		return nil, err
	}

	update := `
		UPDATE appointments
		SET state = $2, inspector_id = $3, form_number = $4, cancel_reason = $5,
			observations = $6, updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update,
		a.ID,
		a.State,
		toPGUUID(a.InspectorID),
		toPGText(a.FormNumber),
		toPGText(a.CancelReason),
		toPGText(a.Observations),
	); err != nil {
		return nil, fmt.Errorf("turnos: update appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("turnos: commit transition: %w", err)
	}
	a.UpdatedAt = time.Now().UTC()
	return a, nil
}

// CountActive derives live occupancy for a slot+shift by counting rows.
// Occupancy is never cached; this query is the source of truth.
func (r *PostgresRepository) CountActive(ctx context.Context, slotID uuid.UUID, shift Shift) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE slot_id = $1 AND shift = $2 AND state NOT IN ('CANCELLED', 'REJECTED')
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, slotID, shift).Scan(&count); err != nil {
		return 0, fmt.Errorf("turnos: count active: %w", err)
	}
	return count, nil
}

// HasActiveForEstablishment reports whether the establishment already holds
// a live request or confirmed visit on or after the given date.
func (r *PostgresRepository) HasActiveForEstablishment(ctx context.Context, establishmentID uuid.UUID, onOrAfter time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM appointments a
			JOIN agenda_slots s ON s.id = a.slot_id
			WHERE a.establishment_id = $1
			  AND a.state IN ('REQUESTED', 'CONFIRMED')
			  AND s.date >= $2
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, establishmentID, DateOnly(onOrAfter)).Scan(&exists); err != nil {
		return false, fmt.Errorf("turnos: check active appointment: %w", err)
	}
	return exists, nil
}

// ListOverdue returns appointments stuck in the given state past the cutoff.
func (r *PostgresRepository) ListOverdue(ctx context.Context, state State, before time.Time) ([]*Appointment, error) {
	query := `
		SELECT` + appointmentColumns + `
		FROM appointments a
		JOIN agenda_slots s ON s.id = a.slot_id
		WHERE a.state = $1 AND s.date < $2
		ORDER BY s.date, a.created_at
	`
	return r.queryAppointments(ctx, query, state, DateOnly(before))
}

// ListConfirmedOn returns confirmed appointments scheduled for the given day.
func (r *PostgresRepository) ListConfirmedOn(ctx context.Context, date time.Time) ([]*Appointment, error) {
	query := `
		SELECT` + appointmentColumns + `
		FROM appointments a
		JOIN agenda_slots s ON s.id = a.slot_id
		WHERE a.state = 'CONFIRMED' AND s.date = $1
		ORDER BY a.created_at
	`
	return r.queryAppointments(ctx, query, DateOnly(date))
}

func (r *PostgresRepository) queryAppointments(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("turnos: query appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("turnos: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByState tallies appointments per lifecycle state.
func (r *PostgresRepository) CountByState(ctx context.Context) (map[State]int, error) {
	query := `SELECT state, COUNT(*) FROM appointments GROUP BY state`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("turnos: count by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[State]int)
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("turnos: scan state count: %w", err)
		}
		counts[state] = count
	}
	return counts, rows.Err()
}

func toPGUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil || *id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: [16]byte(*id), Valid: true}
}

func toPGText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
