package turnos

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
)

// Shift is one of the two half-day inspection windows.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
)

// ParseShift validates a shift code received from a client.
func ParseShift(s string) (Shift, error) {
	switch Shift(strings.ToUpper(strings.TrimSpace(s))) {
	case ShiftMorning:
		return ShiftMorning, nil
	case ShiftAfternoon:
		return ShiftAfternoon, nil
	}
	return "", fmt.Errorf("turnos: unknown shift %q", s)
}

// State is the lifecycle state of an appointment.
type State string

const (
	StateRequested    State = "REQUESTED"
	StateConfirmed    State = "CONFIRMED"
	StateVisited      State = "VISITED"
	StateRejected     State = "REJECTED"
	StateClosed       State = "CLOSED"
	StateCancelled    State = "CANCELLED"
	StateNotPerformed State = "NOT_PERFORMED"
	StateAbsent       State = "ABSENT"
)

// States lists every lifecycle state.
func States() []State {
	return []State{
		StateRequested, StateConfirmed, StateVisited, StateRejected,
		StateClosed, StateCancelled, StateNotPerformed, StateAbsent,
	}
}

// Terminal reports whether no further transition may leave this state.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateClosed, StateCancelled, StateNotPerformed, StateAbsent:
		return true
	}
	return false
}

// Active reports whether the appointment still consumes slot capacity.
// Cancelled and rejected appointments free their spot; every other state
// counts against the shift capacity.
func (s State) Active() bool {
	return s != StateCancelled && s != StateRejected
}

// Action identifies the operation that drives a state transition.
type Action string

const (
	ActionConfirm     Action = "confirm"
	ActionReject      Action = "reject"
	ActionMarkVisited Action = "mark_visited"
	ActionClose       Action = "close"
	ActionCancel      Action = "cancel"
	ActionForceCancel Action = "force_cancel"
	ActionMarkAbsent  Action = "mark_absent"
	ActionExpire      Action = "expire"
	ActionAbandon     Action = "abandon"
)

type transition struct {
	from   State
	action Action
	to     State
}

// transitionTable is the single source of truth for legal lifecycle edges.
// Guards on dates, form numbers and reasons live in ApplyTransition.
var transitionTable = []transition{
	{StateRequested, ActionConfirm, StateConfirmed},
	{StateRequested, ActionReject, StateRejected},
	{StateRequested, ActionExpire, StateRejected},

	{StateConfirmed, ActionMarkVisited, StateVisited},
	{StateConfirmed, ActionCancel, StateCancelled},
	{StateConfirmed, ActionAbandon, StateNotPerformed},

	{StateVisited, ActionClose, StateClosed},
	{StateVisited, ActionMarkAbsent, StateAbsent},

	// Staff override: any non-terminal state may be cancelled with a reason.
	{StateRequested, ActionForceCancel, StateCancelled},
	{StateConfirmed, ActionForceCancel, StateCancelled},
	{StateVisited, ActionForceCancel, StateCancelled},
}

// NextState returns the target state for a from-state/action pair.
func NextState(from State, action Action) (State, bool) {
	for _, tr := range transitionTable {
		if tr.from == from && tr.action == action {
			return tr.to, true
		}
	}
	return "", false
}

// Appointment is a single inspection booking tracked through its lifecycle.
// SlotDate and Zone are denormalized from the owning agenda slot so that
// date guards and routing do not need a second lookup.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	SlotID          uuid.UUID  `json:"slot_id"`
	EstablishmentID uuid.UUID  `json:"establishment_id"`
	InspectorID     *uuid.UUID `json:"inspector_id,omitempty"`
	Shift           Shift      `json:"shift"`
	State           State      `json:"state"`
	SlotDate        time.Time  `json:"slot_date"`
	Zone            geo.Zone   `json:"zone"`
	ContactPhone    string     `json:"contact_phone"`
	LocationRef     string     `json:"location_ref,omitempty"`
	FormNumber      string     `json:"form_number,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	Observations    string     `json:"observations,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TransitionInput carries the action plus everything its guard may need.
type TransitionInput struct {
	Action      Action
	Today       time.Time // civil date of the caller (or sweep reference date)
	InspectorID uuid.UUID // confirm
	FormNumber  string    // close
	Reason      string    // cancel / force_cancel / expire / abandon
}

// ApplyTransition mutates the appointment according to the lifecycle table.
// A guard failure returns ErrInvalidTransition or ErrPastDate and leaves the
// appointment completely untouched.
func (a *Appointment) ApplyTransition(in TransitionInput) error {
	next, ok := NextState(a.State, in.Action)
	if !ok {
		return fmt.Errorf("%w: cannot %s an appointment in state %s", ErrInvalidTransition, in.Action, a.State)
	}

	today := DateOnly(in.Today)
	slotDate := DateOnly(a.SlotDate)

	switch in.Action {
	case ActionConfirm:
		if in.InspectorID == uuid.Nil {
			return fmt.Errorf("%w: confirm requires an inspector", ErrInvalidTransition)
		}
	case ActionMarkVisited:
		// A visit that has not happened yet cannot be recorded.
		if slotDate.After(today) {
			return fmt.Errorf("%w: cannot record a visit before its slot date %s", ErrPastDate, slotDate.Format(dateLayout))
		}
	case ActionCancel:
		// Owners may back out only up to the day before the visit.
		if !today.Before(slotDate) {
			return fmt.Errorf("%w: cancellation closed on %s", ErrPastDate, slotDate.Format(dateLayout))
		}
	case ActionForceCancel:
		if strings.TrimSpace(in.Reason) == "" {
			return fmt.Errorf("%w: override cancellation requires a reason", ErrInvalidTransition)
		}
	case ActionClose:
		if strings.TrimSpace(in.FormNumber) == "" {
			return fmt.Errorf("%w: closing requires the physical form number", ErrInvalidTransition)
		}
	case ActionMarkAbsent:
		if !slotDate.Equal(today) {
			return fmt.Errorf("%w: absence can only be recorded on the visit day %s", ErrPastDate, slotDate.Format(dateLayout))
		}
	case ActionExpire, ActionAbandon:
		// Automatic aging applies strictly after the slot date passed.
		if !slotDate.Before(today) {
			return fmt.Errorf("%w: slot date %s has not passed yet", ErrPastDate, slotDate.Format(dateLayout))
		}
	}

	switch in.Action {
	case ActionConfirm:
		id := in.InspectorID
		a.InspectorID = &id
	case ActionClose:
		a.FormNumber = strings.TrimSpace(in.FormNumber)
	case ActionCancel, ActionForceCancel:
		a.CancelReason = strings.TrimSpace(in.Reason)
	case ActionExpire:
		a.Observations = "SYSTEM: request expired without review before the slot date."
	case ActionAbandon:
		a.Observations = "SYSTEM: confirmed visit passed without an execution report."
	}

	a.State = next
	return nil
}

const dateLayout = "2006-01-02"

// DateOnly truncates a timestamp to its civil date in UTC. All slot dates
// and guard comparisons operate on these normalized values.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
