package agenda

import (
	"testing"
	"time"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateParamsDatesExpandsWeekdayMask(t *testing.T) {
	p := GenerateParams{
		// Sep 2026: the 1st is a Tuesday.
		From:     date(2026, 9, 1),
		To:       date(2026, 9, 14),
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
	}
	got := p.Dates()
	want := []time.Time{
		date(2026, 9, 2), date(2026, 9, 7), date(2026, 9, 9), date(2026, 9, 14),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("date %d: expected %s, got %s", i, want[i].Format("2006-01-02"), got[i].Format("2006-01-02"))
		}
	}
}

func TestGenerateParamsValidate(t *testing.T) {
	base := GenerateParams{
		From:     date(2026, 9, 1),
		To:       date(2026, 9, 30),
		Zones:    []geo.Zone{geo.ZoneTulcanCentro},
		Weekdays: []time.Weekday{time.Monday},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	inverted := base
	inverted.From, inverted.To = inverted.To, inverted.From
	if err := inverted.Validate(); err == nil {
		t.Fatal("inverted range must fail")
	}

	noZones := base
	noZones.Zones = nil
	if err := noZones.Validate(); err == nil {
		t.Fatal("empty zones must fail")
	}

	noWeekdays := base
	noWeekdays.Weekdays = nil
	if err := noWeekdays.Validate(); err == nil {
		t.Fatal("empty weekday mask must fail")
	}

	negative := base
	negative.MorningCapacity = capPtr(-1)
	if err := negative.Validate(); err == nil {
		t.Fatal("negative capacity must fail")
	}
}

func TestSlotCapacityFor(t *testing.T) {
	s := &Slot{MorningCapacity: 6, AfternoonCapacity: 4}
	if s.CapacityFor(turnos.ShiftMorning) != 6 {
		t.Fatal("morning capacity")
	}
	if s.CapacityFor(turnos.ShiftAfternoon) != 4 {
		t.Fatal("afternoon capacity")
	}
}

func TestPercentFull(t *testing.T) {
	cases := []struct {
		occupied, capacity, want int
	}{
		{0, 6, 0},
		{3, 6, 50},
		{6, 6, 100},
		{2, 3, 66},
		{0, 0, 100}, // zero capacity reads as full
	}
	for _, tc := range cases {
		if got := percentFull(tc.occupied, tc.capacity); got != tc.want {
			t.Fatalf("percentFull(%d, %d): expected %d, got %d", tc.occupied, tc.capacity, tc.want, got)
		}
	}
}

func TestShiftAvailabilityOpen(t *testing.T) {
	if !(ShiftAvailability{Capacity: 4, Occupied: 3}).Open() {
		t.Fatal("expected open")
	}
	if (ShiftAvailability{Capacity: 4, Occupied: 4}).Open() {
		t.Fatal("expected full")
	}
}
