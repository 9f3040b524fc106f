package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleTraveler  Role = "traveler"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// User represents a platform user.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Password      string     `json:"-"`
	FullName      string     `json:"full_name"`
	Role          Role       `json:"role"`
	WalletBalance int64      `json:"wallet_balance"` // paise; mutated only alongside a ledger append
	ReferralCode  string     `json:"referral_code"`
	ReferredBy    *uuid.UUID `json:"referred_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	FullName      string    `json:"full_name"`
	Role          Role      `json:"role"`
	WalletBalance int64     `json:"wallet_balance"`
	ReferralCode  string    `json:"referral_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		FullName:      u.FullName,
		Role:          u.Role,
		WalletBalance: u.WalletBalance,
		ReferralCode:  u.ReferralCode,
		CreatedAt:     u.CreatedAt,
	}
}

// RedirectPath returns the frontend landing path for the user's role after login.
func (u *User) RedirectPath() string {
	switch u.Role {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleOrganizer:
		return "/organizer/dashboard"
	default:
		return "/trips"
	}
}
