package agenda

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

// Slot is the bookable capacity pool for one calendar date and one zone,
// split into morning and afternoon shifts. At most one slot exists per
// (date, zone) pair.
type Slot struct {
	ID                uuid.UUID `json:"id"`
	Date              time.Time `json:"date"`
	Zone              geo.Zone  `json:"zone"`
	MorningCapacity   int       `json:"morning_capacity"`
	AfternoonCapacity int       `json:"afternoon_capacity"`
	Enabled           bool      `json:"enabled"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CapacityFor returns the configured capacity for a shift.
func (s *Slot) CapacityFor(shift turnos.Shift) int {
	if shift == turnos.ShiftMorning {
		return s.MorningCapacity
	}
	return s.AfternoonCapacity
}

var (
	// ErrSlotNotFound is returned when a slot id or (date, zone) resolves to nothing
	ErrSlotNotFound = errors.New("agenda: slot not found")

	// ErrStartDateInPast is returned when bulk generation starts before today
	ErrStartDateInPast = errors.New("agenda: range starts in the past")
)

// GenerateParams describes a bulk generation request: every date in the
// range whose weekday is in the mask gets a slot per zone. Existing slots
// are never touched.
type GenerateParams struct {
	From     time.Time
	To       time.Time
	Zones    []geo.Zone
	Weekdays []time.Weekday

	// Nil capacities fall back to the service defaults. An explicit zero
	// is honored and produces a shift that accepts no reservations.
	MorningCapacity   *int
	AfternoonCapacity *int
}

// Validate checks the request shape before any slot is created.
func (p GenerateParams) Validate() error {
	if p.To.Before(p.From) {
		return fmt.Errorf("agenda: range end %s before start %s", p.To.Format("2006-01-02"), p.From.Format("2006-01-02"))
	}
	if len(p.Zones) == 0 {
		return errors.New("agenda: at least one zone required")
	}
	if len(p.Weekdays) == 0 {
		return errors.New("agenda: at least one weekday required")
	}
	if p.MorningCapacity != nil && *p.MorningCapacity < 0 {
		return errors.New("agenda: capacities must be non-negative")
	}
	if p.AfternoonCapacity != nil && *p.AfternoonCapacity < 0 {
		return errors.New("agenda: capacities must be non-negative")
	}
	return nil
}

// Dates expands the range into the matching calendar dates.
func (p GenerateParams) Dates() []time.Time {
	mask := make(map[time.Weekday]bool, len(p.Weekdays))
	for _, wd := range p.Weekdays {
		mask[wd] = true
	}
	var out []time.Time
	for d := turnos.DateOnly(p.From); !d.After(turnos.DateOnly(p.To)); d = d.AddDate(0, 0, 1) {
		if mask[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

// ShiftAvailability is the live occupancy of one shift in a slot.
type ShiftAvailability struct {
	Shift       turnos.Shift `json:"shift"`
	Capacity    int          `json:"capacity"`
	Occupied    int          `json:"occupied"`
	PercentFull int          `json:"percent_full"`
}

// Open reports whether the shift still has room.
func (a ShiftAvailability) Open() bool {
	return a.Occupied < a.Capacity
}

// Availability is the live occupancy of both shifts in a slot.
type Availability struct {
	Slot      *Slot             `json:"slot"`
	Morning   ShiftAvailability `json:"morning"`
	Afternoon ShiftAvailability `json:"afternoon"`
}

func percentFull(occupied, capacity int) int {
	if capacity <= 0 {
		return 100
	}
	return occupied * 100 / capacity
}
