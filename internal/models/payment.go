package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment status values. created -> authorized (signature verified) -> captured (booking created).
const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// Payment is a payment-gateway order tracked through booking capture.
type Payment struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	TripID            uuid.UUID `json:"trip_id"`
	BatchID           uuid.UUID `json:"batch_id"`
	ProviderOrderID   string    `json:"provider_order_id"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	AmountPaise       int64     `json:"amount_paise"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
