package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a mutating admin action. Append-only.
type AuditLog struct {
	ID         uuid.UUID `json:"id"`
	AdminID    uuid.UUID `json:"admin_id"`
	Action     string    `json:"action"`      // e.g. "trip.approve", "payout.pay"
	EntityType string    `json:"entity_type"` // e.g. "trip", "payout", "organizer"
	EntityID   uuid.UUID `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
