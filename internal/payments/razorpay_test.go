package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrderRejectsBelowMinimum(t *testing.T) {
	c := NewRazorpayClient("key", "secret", "http://razorpay.invalid")

	// never reaches the network; the floor check fires first
	_, err := c.CreateOrder(context.Background(), 0, "INR", "r1")
	assert.ErrorIs(t, err, ErrAmountBelowMinimum)
	_, err = c.CreateOrder(context.Background(), 99, "INR", "r2")
	assert.ErrorIs(t, err, ErrAmountBelowMinimum)
}

func TestVerifySignature(t *testing.T) {
	const secret = "test_secret"
	sig := sign(secret, "order_abc", "pay_xyz")

	assert.True(t, VerifySignature(secret, "order_abc", "pay_xyz", sig))
}

func TestVerifySignatureRejectsMutations(t *testing.T) {
	const secret = "test_secret"
	sig := sign(secret, "order_abc", "pay_xyz")

	assert.False(t, VerifySignature(secret, "order_abd", "pay_xyz", sig), "mutated order id")
	assert.False(t, VerifySignature(secret, "order_abc", "pay_xyy", sig), "mutated payment id")
	assert.False(t, VerifySignature(secret, "order_abc", "pay_xyz", sig[:len(sig)-1]+"0"), "mutated signature")
	assert.False(t, VerifySignature("other_secret", "order_abc", "pay_xyz", sig), "wrong secret")
	assert.False(t, VerifySignature(secret, "order_abc", "pay_xyz", ""), "empty signature")
}
