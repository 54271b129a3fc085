package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

// Draft is a reservation request before it becomes an appointment.
type Draft struct {
	EstablishmentID uuid.UUID
	SlotID          uuid.UUID
	Shift           turnos.Shift
	ContactPhone    string
	LocationRef     string
	Observations    string
}

func (d Draft) Validate() error {
	if d.EstablishmentID == uuid.Nil {
		return errors.New("booking: establishment required")
	}
	if d.SlotID == uuid.Nil {
		return errors.New("booking: slot required")
	}
	if d.Shift != turnos.ShiftMorning && d.Shift != turnos.ShiftAfternoon {
		return fmt.Errorf("booking: invalid shift %q", d.Shift)
	}
	if strings.TrimSpace(d.ContactPhone) == "" {
		return errors.New("booking: contact phone required")
	}
	return nil
}

var (
	// ErrSlotClosed is returned when the target slot is disabled.
	ErrSlotClosed = errors.New("booking: slot not accepting reservations")
	// ErrSlotInPast is returned when the target slot date already passed.
	ErrSlotInPast = errors.New("booking: slot date already passed")
	// ErrActiveAppointment enforces one in-flight appointment per establishment.
	ErrActiveAppointment = errors.New("booking: establishment already has an active appointment")
)

// CapacityError signals that the shift was full at reservation time.
type CapacityError struct {
	SlotID   uuid.UUID
	Shift    turnos.Shift
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("booking: %s shift of slot %s is full (capacity %d)", e.Shift, e.SlotID, e.Capacity)
}

// IsCapacityExceeded reports whether err is a capacity rejection.
func IsCapacityExceeded(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
