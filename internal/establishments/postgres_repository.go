package establishments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbtulcan/inspection-platform/internal/geo"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores establishments in the relational database.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("establishments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(exec rowQuerier) *PostgresRepository {
	if exec == nil {
		panic("establishments: exec required")
	}
	return &PostgresRepository{pool: exec}
}

// Create inserts a new establishment. Names and addresses are uppercased,
// matching the registry convention.
func (r *PostgresRepository) Create(ctx context.Context, e *Establishment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.LegalName = strings.ToUpper(strings.TrimSpace(e.LegalName))
	e.TradeName = strings.ToUpper(strings.TrimSpace(e.TradeName))
	e.Address = strings.ToUpper(strings.TrimSpace(e.Address))

	query := `
		INSERT INTO establishments (id, owner_account_id, owner_name, owner_email,
			legal_name, trade_name, address, zone, contact_phone, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	var lat, lon pgtype.Float8
	if e.Location != nil {
		lat = pgtype.Float8{Float64: e.Location.Latitude, Valid: true}
		lon = pgtype.Float8{Float64: e.Location.Longitude, Valid: true}
	}
	if err := r.pool.QueryRow(ctx, query,
		e.ID, e.OwnerAccountID, e.OwnerName, e.OwnerEmail,
		e.LegalName, e.TradeName, e.Address, e.Zone, e.ContactPhone, lat, lon,
	).Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("establishments: insert: %w", err)
	}
	return nil
}

// GetByID fetches an establishment by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Establishment, error) {
	query := `
		SELECT id, owner_account_id, owner_name, owner_email, legal_name, trade_name,
			address, zone, contact_phone, latitude, longitude, created_at, updated_at
		FROM establishments
		WHERE id = $1
	`
	var (
		e        Establishment
		zone     string
		lat, lon pgtype.Float8
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.OwnerAccountID, &e.OwnerName, &e.OwnerEmail, &e.LegalName, &e.TradeName,
		&e.Address, &zone, &e.ContactPhone, &lat, &lon, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("establishments: select: %w", err)
	}
	e.Zone = geo.Zone(zone)
	if lat.Valid && lon.Valid {
		e.Location = &geo.Point{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &e, nil
}

// Owner resolves the owning account for notifications and ownership checks.
func (r *PostgresRepository) Owner(ctx context.Context, id uuid.UUID) (*Owner, error) {
	query := `SELECT owner_account_id, owner_name, owner_email FROM establishments WHERE id = $1`
	var o Owner
	if err := r.pool.QueryRow(ctx, query, id).Scan(&o.AccountID, &o.Name, &o.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("establishments: select owner: %w", err)
	}
	return &o, nil
}

// SetLocation pins the verified geographic point of an establishment.
func (r *PostgresRepository) SetLocation(ctx context.Context, id uuid.UUID, point geo.Point) error {
	query := `
		UPDATE establishments
		SET latitude = $2, longitude = $3, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.pool.Exec(ctx, query, id, point.Latitude, point.Longitude)
	if err != nil {
		return fmt.Errorf("establishments: set location: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrEstablishmentNotFound
	}
	return nil
}
