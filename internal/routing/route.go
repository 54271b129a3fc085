package routing

import (
	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

// Visit is one confirmed inspection stop candidate.
type Visit struct {
	AppointmentID   uuid.UUID  `json:"appointment_id"`
	EstablishmentID uuid.UUID  `json:"establishment_id"`
	Name            string     `json:"name"`
	Address         string     `json:"address"`
	Zone            geo.Zone   `json:"zone"`
	Shift           turnos.Shift `json:"shift"`
	Location        *geo.Point `json:"location,omitempty"`
}

// Route is an ordered inspection itinerary starting from the depot.
type Route struct {
	Depot   geo.Point `json:"depot"`
	Ordered []Visit   `json:"ordered"`
	// Skipped holds visits without a verified location. They still need an
	// inspection, just not a computed position in the itinerary.
	Skipped []Visit `json:"skipped"`
}

// BuildRoute orders the visits with a greedy nearest-neighbor walk from the
// depot. Ties go to the first candidate encountered. The result is a decent
// itinerary, not an optimal one; at a handful of stops per shift that trade
// is fine.
func BuildRoute(depot geo.Point, visits []Visit) Route {
	route := Route{Depot: depot}
	remaining := make([]Visit, 0, len(visits))
	for _, v := range visits {
		if v.Location == nil {
			route.Skipped = append(route.Skipped, v)
			continue
		}
		remaining = append(remaining, v)
	}

	current := depot
	for len(remaining) > 0 {
		best := 0
		bestDist := geo.Distance(current, *remaining[0].Location)
		for i := 1; i < len(remaining); i++ {
			if d := geo.Distance(current, *remaining[i].Location); d < bestDist {
				best = i
				bestDist = d
			}
		}
		next := remaining[best]
		route.Ordered = append(route.Ordered, next)
		current = *next.Location
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return route
}
