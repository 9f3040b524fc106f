// Package fare computes booking totals from trusted inputs. It runs on the
// server for both order creation and booking capture, so a posted total is
// always verified against a fresh computation, never trusted.
package fare

import "errors"

var (
	ErrNoTravelers    = errors.New("traveler count must be at least 1")
	ErrNegativeAmount = errors.New("amounts must be non-negative")
	ErrInvalidTaxRate = errors.New("tax percent must be between 0 and 100")
)

// Input holds the trusted values a quote is computed from.
type Input struct {
	BasePricePaise      int64 // batch override when present, else trip price
	TravelerCount       int
	CouponDiscountPaise int64
	UseWallet           bool
	WalletBalancePaise  int64
	TaxIncluded         bool
	TaxPercent          int
}

// Quote is the computed financial breakdown of a booking.
type Quote struct {
	SubtotalPaise       int64 `json:"subtotal_paise"`
	CouponDiscountPaise int64 `json:"coupon_discount_paise"`
	WalletDiscountPaise int64 `json:"wallet_discount_paise"`
	TaxablePaise        int64 `json:"taxable_paise"`
	TaxPaise            int64 `json:"tax_paise"`
	TotalPaise          int64 `json:"total_paise"`
}

// Compute returns the fare breakdown:
//
//	subtotal = basePrice * travelers
//	coupon   = min(coupon, subtotal)
//	wallet   = useWallet ? min(balance, subtotal - coupon) : 0
//	tax      = taxIncluded ? 0 : round((subtotal - coupon) * taxPercent / 100)
//	total    = max(0, subtotal - coupon - wallet + tax)
func Compute(in Input) (Quote, error) {
	if in.TravelerCount < 1 {
		return Quote{}, ErrNoTravelers
	}
	if in.BasePricePaise < 0 || in.CouponDiscountPaise < 0 || in.WalletBalancePaise < 0 {
		return Quote{}, ErrNegativeAmount
	}
	if in.TaxPercent < 0 || in.TaxPercent > 100 {
		return Quote{}, ErrInvalidTaxRate
	}

	subtotal := in.BasePricePaise * int64(in.TravelerCount)

	coupon := in.CouponDiscountPaise
	if coupon > subtotal {
		coupon = subtotal
	}

	taxable := subtotal - coupon

	var walletDiscount int64
	if in.UseWallet {
		walletDiscount = in.WalletBalancePaise
		if walletDiscount > taxable {
			walletDiscount = taxable
		}
	}

	var tax int64
	if !in.TaxIncluded {
		// round half up to the nearest paisa
		tax = (taxable*int64(in.TaxPercent) + 50) / 100
	}

	total := subtotal - coupon - walletDiscount + tax
	if total < 0 {
		total = 0
	}

	return Quote{
		SubtotalPaise:       subtotal,
		CouponDiscountPaise: coupon,
		WalletDiscountPaise: walletDiscount,
		TaxablePaise:        taxable,
		TaxPaise:            tax,
		TotalPaise:          total,
	}, nil
}
