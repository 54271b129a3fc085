package notify

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification for rendering in the portal.
type Kind string

const (
	KindInfo    Kind = "INFO"
	KindSuccess Kind = "SUCCESS"
	KindWarning Kind = "WARNING"
	KindError   Kind = "ERROR"
)

// Payload is the content of a single lifecycle event delivered to an owner.
// Email and Name are optional; when present the service also attempts email
// delivery on top of the persisted portal notification.
type Payload struct {
	Title   string
	Message string
	Link    string
	Email   string
	Name    string
}

// Notification is a persisted portal notification for one account.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotificationNotFound is returned when a notification id resolves to nothing
var ErrNotificationNotFound = errors.New("notify: notification not found")
