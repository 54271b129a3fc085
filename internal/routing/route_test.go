package routing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

var depot = geo.Point{Latitude: 0.8234943, Longitude: -77.7071697}

func visitAt(name string, p *geo.Point) Visit {
	return Visit{
		AppointmentID:   uuid.New(),
		EstablishmentID: uuid.New(),
		Name:            name,
		Zone:            geo.ZoneTulcanCentro,
		Shift:           turnos.ShiftMorning,
		Location:        p,
	}
}

func names(visits []Visit) []string {
	out := make([]string, len(visits))
	for i, v := range visits {
		out[i] = v.Name
	}
	return out
}

func TestBuildRouteGreedyNearestNeighbor(t *testing.T) {
	far := visitAt("far", &geo.Point{Latitude: 0.9, Longitude: -77.7})
	mid := visitAt("mid", &geo.Point{Latitude: 0.85, Longitude: -77.7})
	near := visitAt("near", &geo.Point{Latitude: 0.83, Longitude: -77.7})

	route := BuildRoute(depot, []Visit{far, mid, near})
	got := names(route.Ordered)
	want := []string{"near", "mid", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %v", i, want[i], got)
		}
	}
	if len(route.Skipped) != 0 {
		t.Fatalf("nothing should be skipped, got %d", len(route.Skipped))
	}
}

func TestBuildRouteGreedyIsNotGlobalOptimal(t *testing.T) {
	// The nearest next stop wins even when a different order would give
	// a shorter total tour.
	a := visitAt("a", &geo.Point{Latitude: 0.0, Longitude: 1.0})
	b := visitAt("b", &geo.Point{Latitude: 0.0, Longitude: -0.9})
	start := geo.Point{Latitude: 0, Longitude: 0}

	route := BuildRoute(start, []Visit{a, b})
	if route.Ordered[0].Name != "b" {
		t.Fatalf("expected greedy pick b first, got %s", route.Ordered[0].Name)
	}
}

func TestBuildRouteTieBreaksOnFirstEncountered(t *testing.T) {
	p := &geo.Point{Latitude: 0.85, Longitude: -77.7}
	first := visitAt("first", p)
	second := visitAt("second", &geo.Point{Latitude: 0.85, Longitude: -77.7})

	route := BuildRoute(depot, []Visit{first, second})
	if route.Ordered[0].Name != "first" {
		t.Fatalf("equidistant tie must go to the first candidate, got %s", route.Ordered[0].Name)
	}
}

func TestBuildRouteSkipsMissingLocations(t *testing.T) {
	located := visitAt("located", &geo.Point{Latitude: 0.83, Longitude: -77.7})
	unlocated := visitAt("unlocated", nil)

	route := BuildRoute(depot, []Visit{unlocated, located})
	if len(route.Ordered) != 1 || route.Ordered[0].Name != "located" {
		t.Fatalf("unexpected ordered stops: %v", names(route.Ordered))
	}
	if len(route.Skipped) != 1 || route.Skipped[0].Name != "unlocated" {
		t.Fatalf("unexpected skipped stops: %v", names(route.Skipped))
	}
}

func TestBuildRouteEmpty(t *testing.T) {
	route := BuildRoute(depot, nil)
	if len(route.Ordered) != 0 || len(route.Skipped) != 0 {
		t.Fatal("empty input must produce an empty route")
	}
}

type stubSource struct {
	visits []Visit
}

func (s *stubSource) VisitsFor(ctx context.Context, date time.Time, zone geo.Zone, shift turnos.Shift) ([]Visit, error) {
	return s.visits, nil
}

func TestServicePlanRoute(t *testing.T) {
	src := &stubSource{visits: []Visit{
		visitAt("a", &geo.Point{Latitude: 0.9, Longitude: -77.7}),
		visitAt("b", &geo.Point{Latitude: 0.83, Longitude: -77.7}),
		visitAt("c", nil),
	}}
	svc := NewService(src, depot, nil, nil)

	route, err := svc.PlanRoute(context.Background(), time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC), geo.ZoneTulcanCentro, turnos.ShiftMorning)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if route.Ordered[0].Name != "b" {
		t.Fatalf("expected b first, got %s", route.Ordered[0].Name)
	}
	if len(route.Skipped) != 1 {
		t.Fatalf("expected 1 skipped, got %d", len(route.Skipped))
	}
	if route.Depot != depot {
		t.Fatal("depot not carried into route")
	}
}
