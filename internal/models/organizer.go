package models

import (
	"time"

	"github.com/google/uuid"
)

// KYCStatus is the organizer verification state. Gates trip publication and payouts.
type KYCStatus string

const (
	KYCIncomplete KYCStatus = "incomplete"
	KYCPending    KYCStatus = "pending"
	KYCVerified   KYCStatus = "verified"
	KYCRejected   KYCStatus = "rejected"
	KYCSuspended  KYCStatus = "suspended"
)

// Organizer is the business profile of a trip organizer. One per user.
type Organizer struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	BusinessName    string    `json:"business_name"`
	ContactEmail    string    `json:"contact_email"`
	ContactPhone    string    `json:"contact_phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	PAN             string    `json:"pan,omitempty"`
	GSTIN           string    `json:"gstin,omitempty"`
	BankAccount     string    `json:"bank_account,omitempty"`
	BankIFSC        string    `json:"bank_ifsc,omitempty"`
	KYCStatus       KYCStatus `json:"kyc_status"`
	AgreementSigned bool      `json:"agreement_signed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CanPublish reports whether the organizer may submit trips for approval.
func (o *Organizer) CanPublish() bool {
	return o.KYCStatus == KYCVerified && o.AgreementSigned
}

// CanRequestPayout reports whether the organizer is eligible to request payouts.
func (o *Organizer) CanRequestPayout() bool {
	return o.KYCStatus == KYCVerified
}
