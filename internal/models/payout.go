package models

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus is the settlement state. paid and failed are terminal.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
	PayoutFailed  PayoutStatus = "failed"
)

// Payout is a settlement of net batch revenue to an organizer.
// Invariant: NetPaise = GrossPaise - CommissionPaise exactly.
type Payout struct {
	ID              uuid.UUID    `json:"id"`
	OrganizerID     uuid.UUID    `json:"organizer_id"`
	TripID          uuid.UUID    `json:"trip_id"`
	BatchID         uuid.UUID    `json:"batch_id"`
	GrossPaise      int64        `json:"gross_paise"`
	CommissionPaise int64        `json:"commission_paise"`
	NetPaise        int64        `json:"net_paise"`
	Status          PayoutStatus `json:"status"`
	UTR             string       `json:"utr,omitempty"`
	InvoiceRef      string       `json:"invoice_ref,omitempty"`
	FailureReason   string       `json:"failure_reason,omitempty"`
	RequestedAt     time.Time    `json:"requested_at"`
	SettledAt       *time.Time   `json:"settled_at,omitempty"`
}

// Terminal reports whether the payout can no longer change state.
func (p *Payout) Terminal() bool {
	return p.Status == PayoutPaid || p.Status == PayoutFailed
}

// BatchRevenue is the worker-maintained revenue snapshot for a batch.
type BatchRevenue struct {
	BatchID      uuid.UUID `json:"batch_id"`
	TripID       uuid.UUID `json:"trip_id"`
	GrossPaise   int64     `json:"gross_paise"`
	BookingCount int       `json:"booking_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}
