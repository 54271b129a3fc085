package routing

import (
	"context"
	"time"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/observability/metrics"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// VisitSource lists confirmed inspection stops for a day, zone and shift.
type VisitSource interface {
	VisitsFor(ctx context.Context, date time.Time, zone geo.Zone, shift turnos.Shift) ([]Visit, error)
}

// Service plans inspector itineraries for a shift.
type Service struct {
	source  VisitSource
	depot   geo.Point
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
}

func NewService(source VisitSource, depot geo.Point, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if source == nil {
		panic("routing: visit source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		source:  source,
		depot:   depot,
		metrics: m,
		logger:  logger.Component("routing"),
	}
}

// PlanRoute builds the itinerary for every confirmed visit on the given
// date, zone and shift. The route is recomputed on demand, never stored.
func (s *Service) PlanRoute(ctx context.Context, date time.Time, zone geo.Zone, shift turnos.Shift) (*Route, error) {
	visits, err := s.source.VisitsFor(ctx, date, zone, shift)
	if err != nil {
		return nil, err
	}
	route := BuildRoute(s.depot, visits)
	s.metrics.ObserveRouteStops(len(route.Ordered))
	s.logger.Info("route planned",
		"date", turnos.DateOnly(date).Format("2006-01-02"),
		"zone", zone,
		"shift", shift,
		"stops", len(route.Ordered),
		"skipped", len(route.Skipped),
	)
	return &route, nil
}
