package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/notify"
	"github.com/cbtulcan/inspection-platform/internal/observability/metrics"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Service handles reservation requests from establishment owners and
// walk-in registrations made by staff at the front desk.
type Service struct {
	slots    agenda.Repository
	appts    turnos.Repository
	coord    Coordinator
	owners   turnos.OwnerResolver
	notifier turnos.NotificationPort
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(slots agenda.Repository, appts turnos.Repository, coord Coordinator, owners turnos.OwnerResolver, notifier turnos.NotificationPort, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if slots == nil || appts == nil || coord == nil {
		panic("booking: slots, appointments and coordinator required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		slots:    slots,
		appts:    appts,
		coord:    coord,
		owners:   owners,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Component("booking"),
		now:      time.Now,
	}
}

// WithClock overrides the time source, used by tests to pin the civil date.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Request creates an owner reservation in REQUESTED state, pending staff
// review. Exactly one appointment may be in flight per establishment.
func (s *Service) Request(ctx context.Context, d Draft) (*turnos.Appointment, error) {
	a, err := s.reserve(ctx, d, turnos.StateRequested, nil)
	if err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, a, notify.KindInfo,
		"Solicitud Recibida",
		fmt.Sprintf("Su solicitud de inspección para el %s fue recibida y está pendiente de revisión.", a.SlotDate.Format("2006-01-02")))
	return a, nil
}

// WalkIn registers a desk reservation made by staff. The appointment is
// created already confirmed, with the inspector assigned on the spot.
func (s *Service) WalkIn(ctx context.Context, d Draft, inspectorID uuid.UUID) (*turnos.Appointment, error) {
	if inspectorID == uuid.Nil {
		return nil, fmt.Errorf("booking: walk-in requires an inspector")
	}
	if d.Observations == "" {
		d.Observations = "VENTANILLA: registrado en atención presencial."
	}
	a, err := s.reserve(ctx, d, turnos.StateConfirmed, &inspectorID)
	if err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, a, notify.KindSuccess,
		"Turno Registrado",
		fmt.Sprintf("Su turno de inspección quedó confirmado para el %s.", a.SlotDate.Format("2006-01-02")))
	return a, nil
}

func (s *Service) reserve(ctx context.Context, d Draft, state turnos.State, inspectorID *uuid.UUID) (*turnos.Appointment, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	slot, err := s.slots.GetByID(ctx, d.SlotID)
	if err != nil {
		return nil, err
	}
	today := turnos.DateOnly(s.now())
	if !slot.Enabled {
		return nil, ErrSlotClosed
	}
	if turnos.DateOnly(slot.Date).Before(today) {
		return nil, ErrSlotInPast
	}

	// This check runs outside the slot lock, so two racing requests can
	// both pass it. The unique index on live appointments catches the
	// loser; this check only produces the friendlier error first.
	active, err := s.appts.HasActiveForEstablishment(ctx, d.EstablishmentID, today)
	if err != nil {
		return nil, fmt.Errorf("booking: check active appointment: %w", err)
	}
	if active {
		return nil, ErrActiveAppointment
	}

	a := &turnos.Appointment{
		SlotID:          slot.ID,
		EstablishmentID: d.EstablishmentID,
		InspectorID:     inspectorID,
		Shift:           d.Shift,
		State:           state,
		SlotDate:        turnos.DateOnly(slot.Date),
		Zone:            slot.Zone,
		ContactPhone:    d.ContactPhone,
		LocationRef:     d.LocationRef,
		Observations:    d.Observations,
	}

	if err := s.coord.Reserve(ctx, slot, a); err != nil {
		if IsCapacityExceeded(err) {
			s.metrics.ObserveReservation("capacity_exceeded")
		} else {
			s.metrics.ObserveReservation("error")
		}
		return nil, err
	}

	s.metrics.ObserveReservation("created")
	s.logger.Info("reservation created",
		"appointment_id", a.ID,
		"slot_id", slot.ID,
		"shift", a.Shift,
		"state", a.State,
		"establishment_id", a.EstablishmentID,
	)
	return a, nil
}

func (s *Service) notifyOwner(ctx context.Context, a *turnos.Appointment, kind notify.Kind, title, message string) {
	if s.notifier == nil || s.owners == nil {
		return
	}
	owner, err := s.owners.Owner(ctx, a.EstablishmentID)
	if err != nil || owner == nil {
		s.logger.Warn("owner lookup failed, notification skipped",
			"appointment_id", a.ID, "establishment_id", a.EstablishmentID, "error", err)
		return
	}
	s.notifier.Notify(ctx, owner.AccountID, kind, notify.Payload{
		Title:   title,
		Message: message,
		Link:    "/portal/",
		Email:   owner.Email,
		Name:    owner.Name,
	})
}
