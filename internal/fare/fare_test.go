package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBreakdown(t *testing.T) {
	// base 1000, 2 travelers, coupon 200, no wallet, 5% tax
	q, err := Compute(Input{
		BasePricePaise:      1000,
		TravelerCount:       2,
		CouponDiscountPaise: 200,
		TaxPercent:          5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), q.SubtotalPaise)
	assert.Equal(t, int64(1800), q.TaxablePaise)
	assert.Equal(t, int64(90), q.TaxPaise)
	assert.Equal(t, int64(1890), q.TotalPaise)
	assert.Equal(t, int64(0), q.WalletDiscountPaise)
}

func TestComputeTaxRounding(t *testing.T) {
	// taxable 333 at 5% is 16.65 paise of tax, rounded half up to 17
	q, err := Compute(Input{
		BasePricePaise: 333,
		TravelerCount:  1,
		TaxPercent:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(17), q.TaxPaise)
	assert.Equal(t, int64(350), q.TotalPaise)

	// taxable 330 at 5% is exactly 16.5, rounds up
	q, err = Compute(Input{
		BasePricePaise: 110,
		TravelerCount:  3,
		TaxPercent:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(17), q.TaxPaise)
}

func TestComputeTaxIncluded(t *testing.T) {
	q, err := Compute(Input{
		BasePricePaise:      1000,
		TravelerCount:       2,
		CouponDiscountPaise: 200,
		TaxIncluded:         true,
		TaxPercent:          5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.TaxPaise)
	assert.Equal(t, int64(1800), q.TotalPaise)
}

func TestComputeWalletCap(t *testing.T) {
	cases := []struct {
		name    string
		balance int64
		want    int64
	}{
		{"balance below remainder", 500, 500},
		{"balance equals remainder", 1800, 1800},
		{"balance above remainder", 5000, 1800},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Compute(Input{
				BasePricePaise:      1000,
				TravelerCount:       2,
				CouponDiscountPaise: 200,
				UseWallet:           true,
				WalletBalancePaise:  tc.balance,
				TaxIncluded:         true,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.WalletDiscountPaise)
			// never exceeds min(balance, subtotal - coupon)
			assert.LessOrEqual(t, q.WalletDiscountPaise, tc.balance)
			assert.LessOrEqual(t, q.WalletDiscountPaise, q.SubtotalPaise-q.CouponDiscountPaise)
		})
	}
}

func TestComputeTotalNeverNegative(t *testing.T) {
	q, err := Compute(Input{
		BasePricePaise:      100,
		TravelerCount:       1,
		CouponDiscountPaise: 100000, // far above subtotal; clamped
		UseWallet:           true,
		WalletBalancePaise:  100000,
		TaxPercent:          18,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, q.TotalPaise, int64(0))
	assert.Equal(t, q.SubtotalPaise, q.CouponDiscountPaise, "coupon clamped to subtotal")
}

func TestComputeCouponClamp(t *testing.T) {
	q, err := Compute(Input{
		BasePricePaise:      1000,
		TravelerCount:       1,
		CouponDiscountPaise: 1500,
		TaxPercent:          5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q.CouponDiscountPaise)
	assert.Equal(t, int64(0), q.TaxablePaise)
	assert.Equal(t, int64(0), q.TotalPaise)
}

func TestComputeRejectsBadInput(t *testing.T) {
	_, err := Compute(Input{BasePricePaise: 1000, TravelerCount: 0})
	assert.ErrorIs(t, err, ErrNoTravelers)

	_, err = Compute(Input{BasePricePaise: -1, TravelerCount: 1})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Compute(Input{BasePricePaise: 1000, TravelerCount: 1, TaxPercent: 120})
	assert.ErrorIs(t, err, ErrInvalidTaxRate)
}

func TestComputeBreakdownIdentity(t *testing.T) {
	// total = subtotal - coupon - wallet + tax for a mixed case
	q, err := Compute(Input{
		BasePricePaise:      250000,
		TravelerCount:       3,
		CouponDiscountPaise: 50000,
		UseWallet:           true,
		WalletBalancePaise:  20000,
		TaxPercent:          5,
	})
	require.NoError(t, err)
	assert.Equal(t, q.SubtotalPaise-q.CouponDiscountPaise-q.WalletDiscountPaise+q.TaxPaise, q.TotalPaise)
}
