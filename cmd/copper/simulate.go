package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ja7ad/copper/pkg/consumption"
	"github.com/ja7ad/copper/pkg/copperutil"
	"github.com/ja7ad/copper/pkg/metrics"
	"github.com/ja7ad/copper/pkg/system/util"
	"github.com/ja7ad/copper/pkg/types"
)

type simOptions struct {
	// outputs
	pretty    bool
	csvPath   string
	jsonPath  string
	logPath   string
	logLength int

	// sleep one interval per iteration instead of running flat out
	realtime bool

	metrics *metrics.Metrics
	name    string
}

type summary struct {
	Steps      int
	LastCap    types.Power
	EnergyCumJ float64
	Averages   consumption.Result
}

// simulate runs the application loop of sc against a synthetic plant: every
// Window iterations it measures performance over the last window, asks the
// controller for a new cap and applies it.
func simulate(ctx context.Context, sc *Scenario, o simOptions, out io.Writer) (summary, error) {
	var sum summary
	if err := sc.Validate(); err != nil {
		return sum, err
	}
	interval, _ := sc.IntervalDuration()

	ctrl, err := copperutil.OpenWithTuning(sc.Target, sc.Power.Min, sc.Power.Max, sc.Power.Start,
		sc.CopperTuning(), o.logLength, o.logPath)
	if err != nil {
		return sum, fmt.Errorf("controller: %w", err)
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			slog.Error("close controller", "err", err)
		}
	}()
	ctrl.SetLogger(slog.Default())

	sk, err := openSinks(out, o.pretty, o.csvPath, o.jsonPath)
	if err != nil {
		return sum, err
	}
	defer sk.close()

	acc := consumption.New(&consumption.Config{
		Target:    sc.Target,
		Tolerance: sc.Tolerance,
		IdlePower: sc.IdlePower,
	})
	pl := newPlant(sc.Phases, sc.Seed)
	ema := util.NewEMA(sc.EMA)

	var tick <-chan time.Time
	if o.realtime {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	window := float64(sc.Window) * interval.Seconds()
	powercap := sc.Power.Start
	iterations := sc.Iterations()

	slog.Debug("simulation start",
		"target", sc.Target, "min", sc.Power.Min, "max", sc.Power.Max, "start", sc.Power.Start,
		"iterations", iterations, "window", sc.Window, "interval", interval)

	for i := 0; i < iterations; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				slog.Info("interrupted", "iteration", i)
				return finish(sum, acc, powercap), nil
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			slog.Info("interrupted", "iteration", i)
			return finish(sum, acc, powercap), nil
		}

		// only change power every Window iterations
		if i == 0 || i%sc.Window != 0 {
			continue
		}

		phase, _ := pl.phase(i)
		perf := ema.Next(pl.Measure(i, powercap/sc.Power.Min))
		acc.Apply(consumption.Sample{TimeSec: window, Cap: types.Power(powercap), Performance: perf})

		next, err := ctrl.Adapt(uint64(i), perf)
		if err != nil {
			return finish(sum, acc, powercap), fmt.Errorf("adapt at iteration %d: %w", i, err)
		}
		powercap = next
		sum.Steps++

		st := ctrl.State()
		if o.metrics != nil {
			o.metrics.Observe(o.name, st, perf, powercap)
		}

		r := row{
			Iteration:   i,
			Phase:       phase,
			Performance: perf,
			Cap:         types.Power(powercap),
			Xup:         st.Xup.U,
			Error:       st.Xup.E,
			Workload:    util.SafeDiv(1, st.Filter.XHat),
			EnergyCumJ:  acc.EnergyCumJ(),
		}
		if err := sk.write(r); err != nil {
			return finish(sum, acc, powercap), err
		}
		slog.Debug("step", "iteration", i, "perf", perf, "cap", powercap, "xup", st.Xup.U)
	}

	return finish(sum, acc, powercap), nil
}

func finish(sum summary, acc *consumption.Accumulator, powercap float64) summary {
	sum.LastCap = types.Power(powercap)
	sum.EnergyCumJ = acc.EnergyCumJ()
	sum.Averages = acc.Averages()
	return sum
}

func printSummary(w io.Writer, sc *Scenario, sum summary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "copper simulation (%d control steps, target %.3f):\n", sum.Steps, sc.Target)
	fmt.Fprintf(w, "- last cap:      %s\n", sum.LastCap.Humanized())
	fmt.Fprintf(w, "- avg power:     %s\n", sum.Averages.Power.Humanized())
	fmt.Fprintf(w, "- avg perf:      %.3f\n", sum.Averages.Performance)
	fmt.Fprintf(w, "- on target:     %.1f%%\n", sum.Averages.OnTarget*100)
	fmt.Fprintf(w, "- energy:        %.3f J\n", sum.EnergyCumJ)
	fmt.Fprintln(w)
}
