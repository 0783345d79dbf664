package consumption

import (
	"fmt"
	"math"
	"testing"

	"github.com/ja7ad/copper/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expect(cfg *Config, s Sample) (power, eff, onTarget float64) {
	power = float64(s.Cap) + cfg.IdlePower
	if power > 1e-12 {
		eff = s.Performance / power
	}
	if cfg.Target > 0 && math.Abs(s.Performance-cfg.Target) <= cfg.Tolerance*cfg.Target {
		onTarget = 1
	}
	return
}

func TestConsumption_Sequence_WithLogs(t *testing.T) {
	cfg := &Config{Target: 100, Tolerance: 0.1, IdlePower: 2}
	acc := New(cfg)

	samples := []Sample{
		{TimeSec: 1, Cap: 60, Performance: 200},
		{TimeSec: 1, Cap: 30, Performance: 120},
		{TimeSec: 1, Cap: 20, Performance: 105},
		{TimeSec: 2, Cap: 18, Performance: 95},
	}

	var sumP, sumPerf, sumEff, sumOn, sumE float64
	t.Logf("# tick,  cap(W) |  power(W)    perf   perf/W  on | E_cum(J)")
	for i, s := range samples {
		res := acc.Apply(s)
		expP, expEff, expOn := expect(cfg, s)
		require.InDelta(t, expP, res.Power.Watts(), 1e-12, "power mismatch at tick %d", i)
		require.InDelta(t, expEff, res.Efficiency, 1e-12, "efficiency mismatch at tick %d", i)
		require.Equal(t, expOn, res.OnTarget, "on-target mismatch at tick %d", i)

		sumP += expP
		sumPerf += s.Performance
		sumEff += expEff
		sumOn += expOn
		sumE += expP * s.TimeSec

		t.Logf("%5d, %7.2f | %9.2f %7.1f %8.3f %3.0f | %8.2f",
			i+1, float64(s.Cap), res.Power.Watts(), res.Performance, res.Efficiency, res.OnTarget, acc.EnergyCumJ())
	}

	assert.InDelta(t, sumE, acc.EnergyCumJ(), 1e-9)
	assert.Equal(t, len(samples), acc.Count())

	avg := acc.Averages()
	n := float64(len(samples))
	assert.InDelta(t, sumP/n, avg.Power.Watts(), 1e-12)
	assert.InDelta(t, sumPerf/n, avg.Performance, 1e-12)
	assert.InDelta(t, sumEff/n, avg.Efficiency, 1e-12)
	assert.InDelta(t, 0.5, avg.OnTarget, 1e-12)

	t.Log("---- summary (averages) ----")
	t.Logf("avg power   : %s", avg.Power.Humanized())
	t.Logf("on target   : %.0f%%", avg.OnTarget*100)
	t.Logf("E_cum       : %.6f J", acc.EnergyCumJ())
}

func TestConsumption_DefaultsAndMerge(t *testing.T) {
	acc := New(nil)
	assert.Equal(t, *_defaultConfig(), *acc.cfg)

	// out of range values fall back to defaults
	acc = New(&Config{Target: -1, Tolerance: -0.5, IdlePower: -5})
	assert.Equal(t, *_defaultConfig(), *acc.cfg)

	// unset tolerance keeps the default
	acc = New(&Config{Target: 10, IdlePower: 0})
	assert.Equal(t, Config{Target: 10, Tolerance: 0.05, IdlePower: 0}, *acc.cfg)

	acc = New(&Config{Target: 10, Tolerance: 2})
	assert.Equal(t, 1.0, acc.cfg.Tolerance, "capped at 100%")

	acc = New(&Config{Target: 10, Tolerance: 0.2})
	assert.Equal(t, 0.2, acc.cfg.Tolerance)
}

func TestConsumption_ZeroPaths(t *testing.T) {
	acc := New(nil)
	assert.Equal(t, Result{}, acc.Averages(), "no samples yet")

	// zero cap: efficiency is not defined, reported as 0
	res := acc.Apply(Sample{TimeSec: 1, Cap: 0, Performance: 5})
	assert.Zero(t, res.Efficiency)
	// no target configured: never on target
	assert.Zero(t, res.OnTarget)

	// negative window: no energy
	acc.Apply(Sample{TimeSec: -1, Cap: 10, Performance: 5})
	assert.Zero(t, acc.EnergyCumJ())
}

func ExampleAccumulator() {
	acc := New(&Config{Target: 100})
	acc.Apply(Sample{TimeSec: 1, Cap: types.Power(60), Performance: 200})
	acc.Apply(Sample{TimeSec: 1, Cap: types.Power(30), Performance: 101})
	avg := acc.Averages()
	fmt.Printf("avg=%s E=%.1fJ on-target=%.0f%%\n", avg.Power.Humanized(), acc.EnergyCumJ(), avg.OnTarget*100)
	// Output: avg=45.00 W E=90.0J on-target=50%
}
