package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a flat-amount discount code.
type Coupon struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	DiscountPaise int64     `json:"discount_paise"`
	MaxUses       int       `json:"max_uses"` // 0 = unlimited
	UsedCount     int       `json:"used_count"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RedeemableAt reports whether the coupon can be applied at the given time.
func (c *Coupon) RedeemableAt(now time.Time) bool {
	if !c.ExpiresAt.After(now) {
		return false
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false
	}
	return true
}
