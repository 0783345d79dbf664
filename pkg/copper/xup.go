package copper

import (
	"math"

	"github.com/ja7ad/copper/pkg/system/util"
)

// confidenceZone returns the minimum number of control steps before the
// controller can be expected to settle within epsilon of the goal.
// A pole of 0 settles instantaneously.
func confidenceZone(pole, epsilon float64) float64 {
	if pole < epsilonFloat64 {
		return 0
	}
	return math.Log(epsilon) / math.Log(pole)
}

// machine epsilon for float64 (DBL_EPSILON)
const epsilonFloat64 = 2.220446049250313e-16

// calculateXup computes the xup needed to reach target given the achieved
// performance and the estimated workload w, then shifts the history.
// umax is the largest allowed xup (costMax/costMin).
func calculateXup(xs *XupState, target, achieved, w float64, step uint64, umax float64) {
	p1 := xs.P1
	p2 := xs.P2
	z1 := xs.Z1
	mu := xs.MU

	a := -(-(p1 * z1) - (p2 * z1) + (mu * p1 * p2) - (mu * p2) + p2 - (mu * p1) + p1 + mu)
	b := -(-(mu * p1 * p2 * z1) + (p1 * p2 * z1) + (mu * p2 * z1) + (mu * p1 * z1) - (mu * z1) - (p1 * p2))
	c := (((mu - (mu * p1)) * p2) + (mu * p1) - mu) * w
	d := ((((mu * p1) - mu) * p2) - (mu * p1) + mu) * w * z1
	f := 1.0 / (z1 - 1.0)

	xs.E = target - achieved

	xs.U = f * ((a * xs.UO) + (b * xs.UOO) + (c * xs.E) + (d * xs.EO))
	// clamp before the gain so large errors are still corrected at full strength
	xs.U = util.Clamp(xs.U, 1.0, umax)

	if float64(step) > math.Ceil(confidenceZone(p1, xs.EPC)) {
		// absolute normalized errors
		en := math.Abs(xs.E) / target
		eno := math.Abs(xs.EO) / target
		den := math.Abs(eno - en)
		// grows with the error: 0 <= ens < 1
		ens := 1.0 - (1.0 / (en + 1.0))
		// grows as the error stops changing: 0 < dens <= 1
		dens := 1.0 / (den + 1.0)
		gain := 1.0 - (xs.GL * dens * ens)
		xs.U = util.Clamp(gain*xs.U, 1.0, umax)
	}

	xs.UOO = xs.UO
	xs.UO = xs.U
	xs.EO = xs.E
}
