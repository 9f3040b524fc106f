package payouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name       string
		gross      int64
		percent    int
		commission int64
		net        int64
	}{
		{"even split", 100000, 10, 10000, 90000},
		{"rounds commission down", 99999, 10, 9999, 90000},
		{"zero gross", 0, 10, 0, 0},
		{"negative gross clamps", -500, 10, 0, 0},
		{"zero commission", 50000, 0, 0, 50000},
		{"full commission", 50000, 100, 50000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commission, net := Split(tc.gross, tc.percent)
			assert.Equal(t, tc.commission, commission)
			assert.Equal(t, tc.net, net)
		})
	}
}

func TestSplitIdentity(t *testing.T) {
	for gross := int64(1); gross < 1000; gross += 7 {
		commission, net := Split(gross, 10)
		assert.Equal(t, gross, commission+net, "gross %d", gross)
	}
}
