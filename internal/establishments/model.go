package establishments

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
)

// Establishment is a registered business subject to fire-safety inspection.
// Location is optional until the owner pins it on the map; routing skips
// establishments without a verified point.
type Establishment struct {
	ID             uuid.UUID  `json:"id"`
	OwnerAccountID uuid.UUID  `json:"owner_account_id"`
	OwnerName      string     `json:"owner_name"`
	OwnerEmail     string     `json:"owner_email,omitempty"`
	LegalName      string     `json:"legal_name"`
	TradeName      string     `json:"trade_name"`
	Address        string     `json:"address"`
	Zone           geo.Zone   `json:"zone"`
	ContactPhone   string     `json:"contact_phone,omitempty"`
	Location       *geo.Point `json:"location,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Owner is the account a notification or ownership check resolves to.
type Owner struct {
	AccountID uuid.UUID
	Name      string
	Email     string
}

// ErrEstablishmentNotFound is returned when an establishment id resolves to nothing
var ErrEstablishmentNotFound = errors.New("establishments: establishment not found")
