package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Service is the notification port of the scheduling core: it persists a
// portal notification per event and attempts email delivery on top.
// Delivery is fire-and-forget with at-most-once semantics; a failure is
// logged and never surfaces to the caller.
type Service struct {
	store  Store
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(store Store, email EmailSender, logger *logging.Logger) *Service {
	if store == nil {
		panic("notify: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:  store,
		email:  email,
		logger: logger,
	}
}

// Notify records the event for the account and sends the optional email.
func (s *Service) Notify(ctx context.Context, accountID uuid.UUID, kind Kind, payload Payload) {
	n := &Notification{
		AccountID: accountID,
		Title:     payload.Title,
		Message:   payload.Message,
		Kind:      kind,
		Link:      payload.Link,
	}
	if err := s.store.Insert(ctx, n); err != nil {
		s.logger.Error("failed to persist notification", "error", err, "account_id", accountID, "title", payload.Title)
		return
	}

	if s.email == nil || payload.Email == "" {
		return
	}
	msg := EmailMessage{
		To:      payload.Email,
		ToName:  payload.Name,
		Subject: fmt.Sprintf("[CBT] %s", payload.Title),
		Body:    payload.Message,
		HTML:    renderEmailHTML(payload),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		// Email is best-effort on top of the persisted notification.
		s.logger.Warn("notification email failed", "error", err, "account_id", accountID, "to", payload.Email)
	}
}

// ListUnread returns the newest unread notifications for an account.
func (s *Service) ListUnread(ctx context.Context, accountID uuid.UUID, limit int) ([]*Notification, error) {
	return s.store.ListUnread(ctx, accountID, limit)
}

// MarkRead flags a notification as read.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error {
	return s.store.MarkRead(ctx, id, accountID)
}

func renderEmailHTML(p Payload) string {
	name := p.Name
	if name == "" {
		name = "Usuario"
	}
	return fmt.Sprintf(`<html><body>
<h2>Cuerpo de Bomberos de Tulcán</h2>
<p>Estimado(a) <strong>%s</strong>,</p>
<p>%s</p>
<p><em>Este es un mensaje automático del Sistema de Agendamiento. Por favor no responda a este correo.</em></p>
</body></html>`, name, p.Message)
}
