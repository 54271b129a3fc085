package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresVisitSource reads confirmed visits with their establishment
// coordinates straight from the database.
type PostgresVisitSource struct {
	pool rowQuerier
}

func NewPostgresVisitSource(pool *pgxpool.Pool) *PostgresVisitSource {
	if pool == nil {
		panic("routing: pgx pool required")
	}
	return &PostgresVisitSource{pool: pool}
}

func newPostgresVisitSourceWithExec(exec rowQuerier) *PostgresVisitSource {
	if exec == nil {
		panic("routing: exec required")
	}
	return &PostgresVisitSource{pool: exec}
}

func (s *PostgresVisitSource) VisitsFor(ctx context.Context, date time.Time, zone geo.Zone, shift turnos.Shift) ([]Visit, error) {
	query := `
		SELECT a.id, e.id, e.trade_name, e.address, sl.zone, a.shift, e.latitude, e.longitude
		FROM appointments a
		JOIN agenda_slots sl ON sl.id = a.slot_id
		JOIN establishments e ON e.id = a.establishment_id
		WHERE a.state = 'CONFIRMED' AND sl.date = $1 AND sl.zone = $2 AND a.shift = $3
		ORDER BY a.created_at
	`
	rows, err := s.pool.Query(ctx, query, turnos.DateOnly(date), zone, shift)
	if err != nil {
		return nil, fmt.Errorf("routing: query visits: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var v Visit
		var zone string
		var lat, lon pgtype.Float8
		if err := rows.Scan(&v.AppointmentID, &v.EstablishmentID, &v.Name, &v.Address, &zone, &v.Shift, &lat, &lon); err != nil {
			return nil, fmt.Errorf("routing: scan visit: %w", err)
		}
		v.Zone = geo.Zone(zone)
		if lat.Valid && lon.Valid {
			v.Location = &geo.Point{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
