package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet transaction types.
const (
	WalletCredit = "credit"
	WalletDebit  = "debit"
)

// Wallet transaction sources.
const (
	WalletSourceReferral = "referral"
	WalletSourceBooking  = "booking"
	WalletSourceRefund   = "refund"
	WalletSourceAdmin    = "admin_adjustment"
)

// WalletTransaction is one entry in the append-only wallet ledger.
// users.wallet_balance is only ever written in the same transaction as an
// insert here, so the balance always equals the ledger sum.
type WalletTransaction struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	AmountPaise int64      `json:"amount_paise"` // always positive; Type carries the sign
	Type        string     `json:"type"`
	Source      string     `json:"source"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
