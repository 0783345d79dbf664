package consumption

import (
	"math"

	"github.com/ja7ad/copper/pkg/system/util"
	"github.com/ja7ad/copper/pkg/types"
)

// Accumulator keeps running energy and averages over applied caps.
// It assumes the capped domain draws its full cap, an upper bound on the
// real energy.
type Accumulator struct {
	cfg           *Config
	energyCumJ    float64
	count         int
	sumPower      float64
	sumPerf       float64
	sumEfficiency float64
	sumOnTarget   float64
}

// New creates an accumulator with the given config.
// Fields in range in cfg override defaults.
// Notes:
//   - Target must be > 0 to enable on-target accounting.
//   - Tolerance must be > 0 to override the default; values above 1 are capped at 1.
//   - IdlePower: zero is valid; negative values are treated as unset.
func New(cfg *Config) *Accumulator {
	base := _defaultConfig()

	// No user cfg: use defaults as-is.
	if cfg == nil {
		return &Accumulator{cfg: base}
	}

	merged := *base

	if cfg.Target > 0 {
		merged.Target = cfg.Target
	}
	if cfg.Tolerance > 0 {
		merged.Tolerance = util.Clamp01(cfg.Tolerance)
	}
	if cfg.IdlePower >= 0 {
		merged.IdlePower = cfg.IdlePower
	}

	return &Accumulator{cfg: &merged}
}

// Apply accounts one window and updates cumulative energy/averages.
//
// Energy is accumulated as:
//
//	E_cum += (cap + idle) * dt
func (a *Accumulator) Apply(s Sample) Result {
	dt := math.Max(s.TimeSec, 0)
	p := s.Cap + types.Power(a.cfg.IdlePower)

	var onTarget float64
	if a.cfg.Target > 0 && math.Abs(s.Performance-a.cfg.Target) <= a.cfg.Tolerance*a.cfg.Target {
		onTarget = 1
	}
	eff := util.SafeDiv(s.Performance, p.Watts())

	a.energyCumJ += p.Energy(dt)
	a.count++
	a.sumPower += p.Watts()
	a.sumPerf += s.Performance
	a.sumEfficiency += eff
	a.sumOnTarget += onTarget

	return Result{Power: p, Performance: s.Performance, Efficiency: eff, OnTarget: onTarget}
}

// EnergyCumJ returns cumulative energy in Joules.
func (a *Accumulator) EnergyCumJ() float64 { return a.energyCumJ }

// Count returns the number of applied samples.
func (a *Accumulator) Count() int { return a.count }

// Averages returns averages over all applied samples.
func (a *Accumulator) Averages() Result {
	if a.count == 0 {
		return Result{}
	}
	n := float64(a.count)
	return Result{
		Power:       types.Power(a.sumPower / n),
		Performance: a.sumPerf / n,
		Efficiency:  a.sumEfficiency / n,
		OnTarget:    a.sumOnTarget / n,
	}
}
