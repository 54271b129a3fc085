package turnos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/establishments"
	"github.com/cbtulcan/inspection-platform/internal/notify"
	"github.com/cbtulcan/inspection-platform/internal/observability/metrics"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// NotificationPort receives lifecycle events for delivery to owners.
// Delivery is fire-and-forget: implementations never propagate failures
// back into the transition that triggered them.
type NotificationPort interface {
	Notify(ctx context.Context, accountID uuid.UUID, kind notify.Kind, payload notify.Payload)
}

// OwnerResolver resolves the account owning an establishment.
type OwnerResolver interface {
	Owner(ctx context.Context, establishmentID uuid.UUID) (*establishments.Owner, error)
}

// Service drives appointment lifecycle transitions requested by staff and
// owners. Every successful ownership-visible transition emits exactly one
// notification event.
type Service struct {
	repo     Repository
	owners   OwnerResolver
	notifier NotificationPort
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs the appointment lifecycle service.
func NewService(repo Repository, owners OwnerResolver, notifier NotificationPort, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("turnos: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		owners:   owners,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
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

// Confirm moves a requested appointment to CONFIRMED and assigns the inspector.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, inspectorID uuid.UUID) (*Appointment, error) {
	a, err := s.apply(ctx, id, TransitionInput{Action: ActionConfirm, Today: s.now(), InspectorID: inspectorID})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, a, notify.KindSuccess,
		"Turno Aprobado",
		fmt.Sprintf("Inspección confirmada para el %s.", a.SlotDate.Format(dateLayout)))
	return a, nil
}

// Reject declines a requested appointment.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.apply(ctx, id, TransitionInput{Action: ActionReject, Today: s.now()})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, a, notify.KindWarning,
		"Solicitud Rechazada",
		"No pudimos procesar su solicitud de inspección. Seleccione una nueva fecha.")
	return a, nil
}

// MarkVisited records that the inspector executed the visit.
func (s *Service) MarkVisited(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.apply(ctx, id, TransitionInput{Action: ActionMarkVisited, Today: s.now()})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, a, notify.KindInfo,
		"Visita Realizada",
		"La visita de inspección fue realizada. El informe está en elaboración.")
	return a, nil
}

// CloseWithForm files the physical form number and closes the appointment.
func (s *Service) CloseWithForm(ctx context.Context, id uuid.UUID, formNumber string) (*Appointment, error) {
	a, err := s.apply(ctx, id, TransitionInput{Action: ActionClose, Today: s.now(), FormNumber: formNumber})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, a, notify.KindSuccess,
		"Inspección Exitosa",
		fmt.Sprintf("Inspección cerrada con formulario N° %s.", a.FormNumber))
	return a, nil
}

// Cancel lets the owner (or staff on their behalf) back out of a confirmed
// visit before its date. Non-staff callers must own the establishment.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string, actorAccountID uuid.UUID, staff bool) (*Appointment, error) {
	if !staff {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		owner, err := s.resolveOwner(ctx, current.EstablishmentID)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.AccountID != actorAccountID {
			return nil, ErrNotOwner
		}
	}

	a, err := s.apply(ctx, id, TransitionInput{Action: ActionCancel, Today: s.now(), Reason: reason})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, a, notify.KindWarning,
		"Turno Cancelado",
		fmt.Sprintf("Su turno del %s ha sido cancelado.", a.SlotDate.Format(dateLayout)))
	return a, nil
}

// ForceCancel is the staff override: cancels any non-terminal appointment
// with a mandatory reason, regardless of dates.
func (s *Service) ForceCancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := s.apply(ctx, id, TransitionInput{Action: ActionForceCancel, Today: s.now(), Reason: reason})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, a, notify.KindWarning,
		"Turno Cancelado",
		fmt.Sprintf("Su turno del %s fue cancelado: %s", a.SlotDate.Format(dateLayout), a.CancelReason))
	return a, nil
}

// MarkAbsent records that the inspector attended but found nobody present.
func (s *Service) MarkAbsent(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.apply(ctx, id, TransitionInput{Action: ActionMarkAbsent, Today: s.now()})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, a, notify.KindError,
		"Ausente en Inspección",
		"El inspector acudió al establecimiento pero no encontró a nadie. Solicite un nuevo turno.")
	return a, nil
}

// Get exposes a single appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// StatsByState tallies appointments per lifecycle state for the dashboard.
func (s *Service) StatsByState(ctx context.Context) (map[State]int, error) {
	return s.repo.CountByState(ctx)
}

func (s *Service) apply(ctx context.Context, id uuid.UUID, in TransitionInput) (*Appointment, error) {
	a, err := s.repo.Transition(ctx, id, func(a *Appointment) error {
		return a.ApplyTransition(in)
	})
	if err != nil {
		s.metrics.ObserveTransition(string(in.Action), "rejected")
		return nil, err
	}
	s.metrics.ObserveTransition(string(in.Action), "applied")
	s.logger.Info("appointment transition applied",
		"appointment_id", a.ID,
		"action", in.Action,
		"state", a.State,
		"slot_date", a.SlotDate.Format(dateLayout),
	)
	return a, nil
}

func (s *Service) resolveOwner(ctx context.Context, establishmentID uuid.UUID) (*establishments.Owner, error) {
	if s.owners == nil {
		return nil, nil
	}
	return s.owners.Owner(ctx, establishmentID)
}

// emit delivers the single notification for a transition. Failures are
// logged and swallowed; they never undo the transition.
func (s *Service) emit(ctx context.Context, a *Appointment, kind notify.Kind, title, message string) {
	if s.notifier == nil {
		return
	}
	owner, err := s.resolveOwner(ctx, a.EstablishmentID)
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
