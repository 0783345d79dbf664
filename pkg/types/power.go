package types

import (
	"fmt"
	"math"
)

// Power is a float64 wrapper representing a power value in watts.
type Power float64

// Humanized returns a human-readable string with automatic unit (µW, mW, W, kW, MW).
func (p Power) Humanized() string {
	v := float64(p)
	a := math.Abs(v)
	switch {
	case a >= 1e6:
		return fmt.Sprintf("%.2f MW", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.2f kW", v/1e3)
	case a >= 1 || a == 0:
		return fmt.Sprintf("%.2f W", v)
	case a >= 1e-3:
		return fmt.Sprintf("%.2f mW", v*1e3)
	default:
		return fmt.Sprintf("%.2f µW", v*1e6)
	}
}

// Watts returns the value in watts.
func (p Power) Watts() float64 { return float64(p) }

// Milliwatts returns the value in milliwatts.
func (p Power) Milliwatts() float64 { return float64(p) * 1e3 }

// Microwatts returns the value in microwatts.
func (p Power) Microwatts() float64 { return float64(p) * 1e6 }

// Energy returns the energy in joules spent at p for dtSec seconds.
func (p Power) Energy(dtSec float64) float64 { return float64(p) * dtSec }
