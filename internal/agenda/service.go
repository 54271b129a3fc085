package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// OccupancyCounter reports how many active appointments occupy a slot shift.
// Counts are always derived from appointment rows, never stored.
type OccupancyCounter interface {
	CountActive(ctx context.Context, slotID uuid.UUID, shift turnos.Shift) (int, error)
}

// Service manages the inspection calendar.
type Service struct {
	repo      Repository
	occupancy OccupancyCounter
	logger    *logging.Logger
	now       func() time.Time

	defaultMorning   int
	defaultAfternoon int
}

func NewService(repo Repository, occupancy OccupancyCounter, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:             repo,
		occupancy:        occupancy,
		logger:           logger.Component("agenda"),
		now:              time.Now,
		defaultMorning:   6,
		defaultAfternoon: 4,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithDefaultCapacities sets the capacities applied to any shift a
// generation request leaves unset.
func (s *Service) WithDefaultCapacities(morning, afternoon int) *Service {
	s.defaultMorning = morning
	s.defaultAfternoon = afternoon
	return s
}

// Generate creates slots for every matching weekday in the range, one per
// zone, skipping (date, zone) pairs that already have a slot. Re-running
// with the same parameters creates nothing new. Returns the created count.
func (s *Service) Generate(ctx context.Context, p GenerateParams) (int, error) {
	morning, afternoon := s.defaultMorning, s.defaultAfternoon
	if p.MorningCapacity != nil {
		morning = *p.MorningCapacity
	}
	if p.AfternoonCapacity != nil {
		afternoon = *p.AfternoonCapacity
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	today := turnos.DateOnly(s.now())
	if p.From.Before(today) {
		return 0, ErrStartDateInPast
	}

	created := 0
	for _, date := range p.Dates() {
		for _, zone := range p.Zones {
			slot := &Slot{
				Date:              date,
				Zone:              zone,
				MorningCapacity:   morning,
				AfternoonCapacity: afternoon,
				Enabled:           true,
			}
			ok, err := s.repo.CreateIfAbsent(ctx, slot)
			if err != nil {
				return created, fmt.Errorf("generate slot %s/%s: %w", date.Format("2006-01-02"), zone, err)
			}
			if ok {
				created++
			}
		}
	}
	s.logger.Info("slots generated",
		"from", p.From.Format("2006-01-02"),
		"to", p.To.Format("2006-01-02"),
		"zones", len(p.Zones),
		"created", created,
	)
	return created, nil
}

// Override adjusts capacities or disables a single slot. Lowering a capacity
// below the current occupancy is allowed; existing appointments stand and the
// slot simply stops accepting new ones.
func (s *Service) Override(ctx context.Context, id uuid.UUID, morningCap, afternoonCap int, enabled bool) (*Slot, error) {
	if morningCap < 0 || afternoonCap < 0 {
		return nil, fmt.Errorf("agenda: capacities must be non-negative")
	}
	slot, err := s.repo.Override(ctx, id, morningCap, afternoonCap, enabled)
	if err != nil {
		return nil, err
	}
	s.logger.Info("slot overridden", "slot_id", id, "morning", morningCap, "afternoon", afternoonCap, "enabled", enabled)
	return slot, nil
}

// GetAvailability reports per-shift occupancy for one slot.
func (s *Service) GetAvailability(ctx context.Context, id uuid.UUID) (*Availability, error) {
	slot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.availabilityFor(ctx, slot)
}

// GetAvailabilityOn reports per-shift occupancy for the slot of a calendar
// date and zone, the lookup booking surfaces use.
func (s *Service) GetAvailabilityOn(ctx context.Context, date time.Time, zone geo.Zone) (*Availability, error) {
	slot, err := s.repo.GetByDateZone(ctx, date, zone)
	if err != nil {
		return nil, err
	}
	return s.availabilityFor(ctx, slot)
}

// ListOpenSlots returns availability for every upcoming slot in a zone,
// today included. Disabled slots are omitted.
func (s *Service) ListOpenSlots(ctx context.Context, zone geo.Zone) ([]*Availability, error) {
	slots, err := s.repo.ListUpcoming(ctx, zone, turnos.DateOnly(s.now()))
	if err != nil {
		return nil, err
	}
	out := make([]*Availability, 0, len(slots))
	for _, slot := range slots {
		if !slot.Enabled {
			continue
		}
		av, err := s.availabilityFor(ctx, slot)
		if err != nil {
			return nil, err
		}
		out = append(out, av)
	}
	return out, nil
}

func (s *Service) availabilityFor(ctx context.Context, slot *Slot) (*Availability, error) {
	morning, err := s.occupancy.CountActive(ctx, slot.ID, turnos.ShiftMorning)
	if err != nil {
		return nil, fmt.Errorf("count morning occupancy: %w", err)
	}
	afternoon, err := s.occupancy.CountActive(ctx, slot.ID, turnos.ShiftAfternoon)
	if err != nil {
		return nil, fmt.Errorf("count afternoon occupancy: %w", err)
	}
	return &Availability{
		Slot: slot,
		Morning: ShiftAvailability{
			Shift:       turnos.ShiftMorning,
			Capacity:    slot.MorningCapacity,
			Occupied:    morning,
			PercentFull: percentFull(morning, slot.MorningCapacity),
		},
		Afternoon: ShiftAvailability{
			Shift:       turnos.ShiftAfternoon,
			Capacity:    slot.AfternoonCapacity,
			Occupied:    afternoon,
			PercentFull: percentFull(afternoon, slot.AfternoonCapacity),
		},
	}, nil
}
