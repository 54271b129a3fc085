// Package sweeper ages overdue appointments and sends day-before reminders.
// Sweeps are idempotent: every action it takes moves an appointment into a
// terminal state, so a second run over the same data finds nothing to do.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/cbtulcan/inspection-platform/internal/notify"
	"github.com/cbtulcan/inspection-platform/internal/observability/metrics"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Result summarizes a single sweep.
type Result struct {
	Expired   int `json:"expired"`
	Abandoned int `json:"abandoned"`
	Reminded  int `json:"reminded"`
	Failures  int `json:"failures"`
}

// Sweeper runs the nightly lifecycle pass over the appointment table.
type Sweeper struct {
	repo     turnos.Repository
	owners   turnos.OwnerResolver
	notifier turnos.NotificationPort
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

func New(repo turnos.Repository, owners turnos.OwnerResolver, notifier turnos.NotificationPort, m *metrics.SchedulingMetrics, logger *logging.Logger) *Sweeper {
	if repo == nil {
		panic("sweeper: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		repo:     repo,
		owners:   owners,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Component("sweeper"),
	}
}

// Run processes everything overdue relative to refDate. A failure on one
// appointment is logged and counted; the sweep continues with the rest.
func (s *Sweeper) Run(ctx context.Context, refDate time.Time) (Result, error) {
	ref := turnos.DateOnly(refDate)
	var res Result

	expired, err := s.age(ctx, turnos.StateRequested, turnos.ActionExpire, ref, &res)
	if err != nil {
		return res, err
	}
	res.Expired = expired

	abandoned, err := s.age(ctx, turnos.StateConfirmed, turnos.ActionAbandon, ref, &res)
	if err != nil {
		return res, err
	}
	res.Abandoned = abandoned

	if err := s.remind(ctx, ref, &res); err != nil {
		return res, err
	}

	s.logger.Info("sweep finished",
		"ref_date", ref.Format("2006-01-02"),
		"expired", res.Expired,
		"abandoned", res.Abandoned,
		"reminded", res.Reminded,
		"failures", res.Failures,
	)
	return res, nil
}

// age moves every appointment stuck in the given state past refDate into its
// terminal successor. Listing is the only fatal failure; individual
// transitions fail independently.
func (s *Sweeper) age(ctx context.Context, state turnos.State, action turnos.Action, ref time.Time, res *Result) (int, error) {
	overdue, err := s.repo.ListOverdue(ctx, state, ref)
	if err != nil {
		return 0, fmt.Errorf("sweeper: list overdue %s: %w", state, err)
	}

	processed := 0
	for _, a := range overdue {
		_, err := s.repo.Transition(ctx, a.ID, func(a *turnos.Appointment) error {
			return a.ApplyTransition(turnos.TransitionInput{Action: action, Today: ref})
		})
		if err != nil {
			res.Failures++
			s.metrics.ObserveSweep(string(action), "failed")
			s.logger.Error("sweep transition failed",
				"appointment_id", a.ID, "action", action, "error", err)
			continue
		}
		processed++
		s.metrics.ObserveSweep(string(action), "ok")
		s.notifyAged(ctx, a, action)
	}
	return processed, nil
}

// notifyAged tells the owner their appointment aged out. Best-effort, one
// event per aged appointment.
func (s *Sweeper) notifyAged(ctx context.Context, a *turnos.Appointment, action turnos.Action) {
	if s.notifier == nil || s.owners == nil {
		return
	}
	owner, err := s.owners.Owner(ctx, a.EstablishmentID)
	if err != nil || owner == nil {
		s.logger.Warn("aged notification skipped, owner lookup failed",
			"appointment_id", a.ID, "establishment_id", a.EstablishmentID, "error", err)
		return
	}

	payload := notify.Payload{Link: "/portal/", Email: owner.Email, Name: owner.Name}
	switch action {
	case turnos.ActionExpire:
		payload.Title = "Solicitud Expirada"
		payload.Message = fmt.Sprintf("Su solicitud de inspección para el %s expiró sin ser revisada.", a.SlotDate.Format("2006-01-02"))
	case turnos.ActionAbandon:
		payload.Title = "Visita No Realizada"
		payload.Message = fmt.Sprintf("La inspección confirmada para el %s no fue ejecutada.", a.SlotDate.Format("2006-01-02"))
	default:
		return
	}
	s.notifier.Notify(ctx, owner.AccountID, notify.KindWarning, payload)
}

// remind notifies owners whose confirmed visit is tomorrow.
func (s *Sweeper) remind(ctx context.Context, ref time.Time, res *Result) error {
	if s.notifier == nil || s.owners == nil {
		return nil
	}
	tomorrow := ref.AddDate(0, 0, 1)
	confirmed, err := s.repo.ListConfirmedOn(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("sweeper: list confirmed for reminders: %w", err)
	}
	for _, a := range confirmed {
		owner, err := s.owners.Owner(ctx, a.EstablishmentID)
		if err != nil || owner == nil {
			res.Failures++
			s.logger.Warn("reminder skipped, owner lookup failed",
				"appointment_id", a.ID, "establishment_id", a.EstablishmentID, "error", err)
			continue
		}
		s.notifier.Notify(ctx, owner.AccountID, notify.KindInfo, notify.Payload{
			Title:   "Recordatorio de Inspección",
			Message: fmt.Sprintf("Su inspección está programada para mañana %s.", tomorrow.Format("2006-01-02")),
			Link:    "/portal/",
			Email:   owner.Email,
			Name:    owner.Name,
		})
		res.Reminded++
		s.metrics.ObserveSweep("remind", "ok")
	}
	return nil
}
