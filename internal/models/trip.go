package models

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the moderation/listing state of a trip.
type TripStatus string

const (
	TripDraft           TripStatus = "draft"
	TripPendingApproval TripStatus = "pending_approval"
	TripPublished       TripStatus = "published"
	TripUnlisted        TripStatus = "unlisted"
	TripRejected        TripStatus = "rejected"
)

// Trip is a listed travel experience owned by an organizer.
type Trip struct {
	ID              uuid.UUID   `json:"id"`
	OrganizerID     uuid.UUID   `json:"organizer_id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Description     string      `json:"description"`
	Location        string      `json:"location"`
	PricePaise      int64       `json:"price_paise"` // per traveler, unless the batch overrides it
	Status          TripStatus  `json:"status"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	Batches         []TripBatch `json:"batches,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Editable reports whether the organizer may modify the trip in its current state.
// Editing a published trip is allowed but drops it back to pending approval.
func (t *Trip) Editable() bool {
	switch t.Status {
	case TripDraft, TripRejected, TripUnlisted, TripPublished:
		return true
	}
	return false
}

// BatchStatus is the listing state of a batch.
type BatchStatus string

const (
	BatchActive   BatchStatus = "active"
	BatchInactive BatchStatus = "inactive"
)

// TripBatch is a scheduled departure of a trip with its own dates, capacity and price.
type TripBatch struct {
	ID                 uuid.UUID   `json:"id"`
	TripID             uuid.UUID   `json:"trip_id"`
	StartDate          time.Time   `json:"start_date"`
	EndDate            time.Time   `json:"end_date"`
	Capacity           int         `json:"capacity"`
	SeatsBooked        int         `json:"seats_booked"`
	PriceOverridePaise *int64      `json:"price_override_paise,omitempty"`
	Status             BatchStatus `json:"status"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// AvailableSlots is capacity minus confirmed seats. seats_booked is the
// compare-and-swap target for the oversell guard, so the read side derives
// from it rather than counting bookings.
func (b *TripBatch) AvailableSlots() int {
	n := b.Capacity - b.SeatsBooked
	if n < 0 {
		return 0
	}
	return n
}

// EffectivePricePaise returns the batch override when present, else the trip price.
func (b *TripBatch) EffectivePricePaise(trip *Trip) int64 {
	if b.PriceOverridePaise != nil {
		return *b.PriceOverridePaise
	}
	return trip.PricePaise
}

// Bookable reports whether new bookings may target the batch at the given time.
func (b *TripBatch) Bookable(now time.Time) bool {
	return b.Status == BatchActive && b.StartDate.After(now)
}

// Completed reports whether the batch has finished (payout eligibility input).
func (b *TripBatch) Completed(now time.Time) bool {
	return b.EndDate.Before(now)
}
