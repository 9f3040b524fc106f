package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the booking lifecycle state.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// RefundStatus tracks refunds on cancelled bookings.
type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
)

// Traveler is one person on a booking.
type Traveler struct {
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// Booking is a confirmed purchase of seats on a trip batch.
// Invariant: TotalPaise = SubtotalPaise - CouponDiscountPaise - WalletUsedPaise + TaxPaise, clamped >= 0.
type Booking struct {
	ID                  uuid.UUID     `json:"id"`
	UserID              uuid.UUID     `json:"user_id"`
	TripID              uuid.UUID     `json:"trip_id"`
	BatchID             uuid.UUID     `json:"batch_id"`
	Travelers           []Traveler    `json:"travelers"`
	SubtotalPaise       int64         `json:"subtotal_paise"`
	CouponCode          string        `json:"coupon_code,omitempty"`
	CouponDiscountPaise int64         `json:"coupon_discount_paise"`
	WalletUsedPaise     int64         `json:"wallet_used_paise"`
	TaxPaise            int64         `json:"tax_paise"`
	TotalPaise          int64         `json:"total_paise"`
	PaymentID           *uuid.UUID    `json:"payment_id,omitempty"`
	Status              BookingStatus `json:"status"`
	RefundStatus        RefundStatus  `json:"refund_status"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// CanTransition reports whether the booking may move to the given status.
// pending -> confirmed -> completed; pending|confirmed -> cancelled.
// Completed bookings are immutable.
func (b *Booking) CanTransition(to BookingStatus) bool {
	switch b.Status {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCompleted || to == BookingCancelled
	}
	return false
}

// Cancellable reports whether a cancel request may proceed. Cancelling an
// already-cancelled booking is treated as a no-op by the caller.
func (b *Booking) Cancellable() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// SeatCount is the number of seats the booking holds.
func (b *Booking) SeatCount() int {
	return len(b.Travelers)
}
