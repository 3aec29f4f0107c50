package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationState is the change detector's bookkeeping: the last status it
// observed for a contract, per identity. One row per (identity, contract),
// created lazily on first observation and updated every cycle.
type NotificationState struct {
	IdentityID uuid.UUID
	ContractID uuid.UUID
	LastStatus ContractStatus
	UpdatedAt  time.Time
}

// Notification is an emitted event kept as an inbox row. Delivery transport
// is out of scope; rows exist so a client can list what it missed.
type Notification struct {
	ID         uuid.UUID
	IdentityID uuid.UUID
	Title      string
	Body       string
	CreatedAt  time.Time
}
