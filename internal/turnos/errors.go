package turnos

import "errors"

var (
	// ErrAppointmentNotFound is returned when an appointment id resolves to nothing
	ErrAppointmentNotFound = errors.New("turnos: appointment not found")

	// ErrInvalidTransition is returned when an action is not legal for the current state
	ErrInvalidTransition = errors.New("turnos: invalid state transition")

	// ErrPastDate is returned when a date guard forbids an otherwise legal action
	ErrPastDate = errors.New("turnos: date forbids this action")

	// ErrNotOwner is returned when a caller acts on an appointment of another account
	ErrNotOwner = errors.New("turnos: appointment belongs to another account")
)
