package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, 10)
		assert.True(t, strings.HasPrefix(code, "TRV-"))
		for _, c := range code[4:] {
			assert.Contains(t, referralAlphabet, string(c))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90, "codes should be effectively unique")
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ladakh Bike Expedition", "ladakh-bike-expedition"},
		{"  Goa: Beach & Chill!  ", "goa-beach-chill"},
		{"Spiti 2026", "spiti-2026"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), tc.in)
	}
}
