package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPower_Humanized_Boundaries(t *testing.T) {
	cases := []struct {
		in   Power
		want string
	}{
		{Power(0), "0.00 W"},
		{Power(1), "1.00 W"},
		{Power(999.994), "999.99 W"}, // just below 1 kW
		{Power(1000), "1.00 kW"},     // exactly 1 kW
		{Power(1e6), "1.00 MW"},      // exactly 1 MW
		{Power(0.5), "500.00 mW"},    // below 1 W
		{Power(1e-3), "1.00 mW"},     // exactly 1 mW
		{Power(2.5e-5), "25.00 µW"},  // below 1 mW
		{Power(-60), "-60.00 W"},     // sign is kept
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d_%g", i, float64(tc.in)), func(t *testing.T) {
			got := tc.in.Humanized()
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPower_UnitAccessors(t *testing.T) {
	p := Power(1.5)
	assert.InDelta(t, 1.5, p.Watts(), 1e-12)
	assert.InDelta(t, 1500, p.Milliwatts(), 1e-9)
	assert.InDelta(t, 1.5e6, p.Microwatts(), 1e-6)
}

func TestPower_Energy(t *testing.T) {
	assert.InDelta(t, 120.0, Power(60).Energy(2), 1e-12)
	assert.Zero(t, Power(60).Energy(0))
}
