package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingCanTransition(t *testing.T) {
	cases := []struct {
		from BookingStatus
		to   BookingStatus
		ok   bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCompleted, BookingConfirmed, false},
	}
	for _, tc := range cases {
		b := &Booking{Status: tc.from}
		assert.Equal(t, tc.ok, b.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestBookingCancellable(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingPending}).Cancellable())
	assert.True(t, (&Booking{Status: BookingConfirmed}).Cancellable())
	assert.False(t, (&Booking{Status: BookingCancelled}).Cancellable())
	assert.False(t, (&Booking{Status: BookingCompleted}).Cancellable())
}

func TestBookingSeatCount(t *testing.T) {
	b := &Booking{Travelers: []Traveler{{Name: "A"}, {Name: "B"}, {Name: "C"}}}
	assert.Equal(t, 3, b.SeatCount())
}

func TestCouponRedeemableAt(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	assert.True(t, (&Coupon{ExpiresAt: future}).RedeemableAt(now), "unlimited, unexpired")
	assert.False(t, (&Coupon{ExpiresAt: past}).RedeemableAt(now), "expired")
	assert.False(t, (&Coupon{ExpiresAt: now}).RedeemableAt(now), "expiry boundary is exclusive")
	assert.True(t, (&Coupon{ExpiresAt: future, MaxUses: 5, UsedCount: 4}).RedeemableAt(now))
	assert.False(t, (&Coupon{ExpiresAt: future, MaxUses: 5, UsedCount: 5}).RedeemableAt(now), "exhausted")
	assert.True(t, (&Coupon{ExpiresAt: future, MaxUses: 0, UsedCount: 100}).RedeemableAt(now), "zero max_uses is unlimited")
}

func TestBatchAvailableSlots(t *testing.T) {
	assert.Equal(t, 7, (&TripBatch{Capacity: 10, SeatsBooked: 3}).AvailableSlots())
	assert.Equal(t, 0, (&TripBatch{Capacity: 10, SeatsBooked: 10}).AvailableSlots())
	assert.Equal(t, 0, (&TripBatch{Capacity: 10, SeatsBooked: 12}).AvailableSlots())
}

func TestBatchEffectivePrice(t *testing.T) {
	trip := &Trip{PricePaise: 150000}
	assert.Equal(t, int64(150000), (&TripBatch{}).EffectivePricePaise(trip))

	override := int64(120000)
	assert.Equal(t, override, (&TripBatch{PriceOverridePaise: &override}).EffectivePricePaise(trip))
}

func TestBatchBookable(t *testing.T) {
	now := time.Now()
	assert.True(t, (&TripBatch{Status: BatchActive, StartDate: now.Add(time.Hour)}).Bookable(now))
	assert.False(t, (&TripBatch{Status: BatchInactive, StartDate: now.Add(time.Hour)}).Bookable(now))
	assert.False(t, (&TripBatch{Status: BatchActive, StartDate: now.Add(-time.Hour)}).Bookable(now), "departed batch")
}

func TestPayoutTerminal(t *testing.T) {
	assert.False(t, (&Payout{Status: PayoutPending}).Terminal())
	assert.True(t, (&Payout{Status: PayoutPaid}).Terminal())
	assert.True(t, (&Payout{Status: PayoutFailed}).Terminal())
}

func TestOrganizerCanPublish(t *testing.T) {
	assert.True(t, (&Organizer{KYCStatus: KYCVerified, AgreementSigned: true}).CanPublish())
	assert.False(t, (&Organizer{KYCStatus: KYCVerified}).CanPublish())
	assert.False(t, (&Organizer{KYCStatus: KYCPending, AgreementSigned: true}).CanPublish())
}
