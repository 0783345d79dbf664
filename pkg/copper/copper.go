package copper

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/ja7ad/copper/pkg/system/util"
)

// Controller adjusts a cost cap (e.g. power) to keep measured performance
// near a target. The zero value must be initialized with Init before use.
// A Controller is not safe for concurrent use.
type Controller struct {
	ctx    Context
	fs     FilterState
	xs     XupState
	ls     logState
	steps  uint64
	logger *slog.Logger
}

// New allocates and initializes a controller with the default tuning.
func New(target, costMin, costMax, costStart float64) (*Controller, error) {
	return NewWithTuning(target, costMin, costMax, costStart, nil)
}

// NewWithTuning is like New but overrides the default constants with the
// in-range fields of t. A nil t uses the defaults.
func NewWithTuning(target, costMin, costMax, costStart float64, t *Tuning) (*Controller, error) {
	c := new(Controller)
	if err := c.InitWithTuning(target, costMin, costMax, costStart, t); err != nil {
		return nil, err
	}
	return c, nil
}

// Init initializes c with the default tuning.
// Constraints: target > 0 and 0 < costMin <= costStart <= costMax.
// Logging is disabled until SetLogging is called.
func (c *Controller) Init(target, costMin, costMax, costStart float64) error {
	return c.init(target, costMin, costMax, costStart, mergeTuning(nil))
}

// InitWithTuning is like Init but overrides the default constants with the
// in-range fields of t.
func (c *Controller) InitWithTuning(target, costMin, costMax, costStart float64, t *Tuning) error {
	return c.init(target, costMin, costMax, costStart, mergeTuning(t))
}

func (c *Controller) init(target, costMin, costMax, costStart float64, t Tuning) error {
	if !finite(target, costMin, costMax, costStart) ||
		target <= 0 || costMin <= 0 || costMax < costMin || costStart < costMin || costStart > costMax {
		return fmt.Errorf("%w: need target > 0 and 0 < min <= start <= max, got target=%v min=%v max=%v start=%v",
			ErrInvalidArgument, target, costMin, costMax, costStart)
	}

	c.ctx = Context{
		Target:  target,
		CostMin: costMin,
		CostMax: costMax,
	}

	c.fs = FilterState{
		XHatMinus: xHatMinusStart,
		XHat:      xHatStart,
		PMinus:    pMinusStart,
		H:         hStart,
		K:         kStart,
		P:         pStart,
		Q:         t.Q,
		R:         t.R,
	}

	// seed the history with the xup of the starting cost
	u := costStart / costMin
	c.xs = XupState{
		U:   u,
		UO:  u,
		UOO: u,
		E:   eStart,
		EO:  eoStart,
		P1:  t.P1,
		P2:  t.P2,
		Z1:  t.Z1,
		MU:  t.MU,
		EPC: t.EPC,
		GL:  t.GainLimit,
	}

	c.ls = logState{}
	c.steps = 0
	return nil
}

// Adapt returns the new cap to apply given the measured performance.
// tag is a caller-defined identifier used only for logging.
// It fails with ErrInvalidArgument, without changing state, if performance
// is negative or not finite.
func (c *Controller) Adapt(tag uint64, performance float64) (float64, error) {
	if c.ctx.Target <= 0 {
		return 0, fmt.Errorf("%w: controller not initialized", ErrInvalidArgument)
	}
	if performance < 0 || !finite(performance) {
		return 0, fmt.Errorf("%w: performance must be finite and >= 0, got %v", ErrInvalidArgument, performance)
	}

	ctx := &c.ctx
	// base workload, i.e. time between measurements at minimum cost
	workload := estimateWorkload(&c.fs, performance, c.xs.U)
	calculateXup(&c.xs, ctx.Target, performance, workload, c.steps, ctx.CostMax/ctx.CostMin)
	c.steps++

	// xup is already within [1, max/min]; the clamp only absorbs rounding
	cost := util.Clamp(c.xs.U*ctx.CostMin, ctx.CostMin, ctx.CostMax)

	c.record(tag, performance, workload, cost)
	return cost, nil
}

// Close flushes log entries that have not reached the sink yet.
// It is safe to call more than once. The log buffer and sink remain owned
// by the caller.
func (c *Controller) Close() error {
	n := len(c.ls.buf)
	if n == 0 {
		return nil
	}
	return c.ls.flush(int(c.ls.id % uint64(n)))
}

// SetLogging enables logging into buf, flushing to sink whenever buf wraps.
// An empty buf disables logging; a nil sink keeps entries in memory only.
// The sequence id restarts at 0 on every call. If sink is not nil, the
// header row is written to it immediately.
func (c *Controller) SetLogging(buf []LogEntry, sink io.Writer) error {
	if sink != nil {
		if err := WriteHeader(sink); err != nil {
			return fmt.Errorf("%w: write log header: %w", ErrIO, err)
		}
	}
	c.ls = logState{
		buf:  buf,
		sink: sink,
	}
	return nil
}

// SetPerformanceTarget changes the performance goal; target must be > 0.
func (c *Controller) SetPerformanceTarget(target float64) error {
	if target <= 0 || !finite(target) {
		return fmt.Errorf("%w: target must be finite and > 0, got %v", ErrInvalidArgument, target)
	}
	c.ctx.Target = target
	return nil
}

// SetGainLimit changes the gain limit; 0 <= gain < 1.
func (c *Controller) SetGainLimit(gain float64) error {
	if !(gain >= 0 && gain < 1) {
		return fmt.Errorf("%w: gain limit must be in [0,1), got %v", ErrInvalidArgument, gain)
	}
	c.xs.GL = gain
	return nil
}

// SetLogger sets the logger that receives best-effort warnings, such as a
// failed flush during Adapt. nil discards them.
func (c *Controller) SetLogger(l *slog.Logger) { c.logger = l }

// State returns a copy of the controller internals.
func (c *Controller) State() State {
	return State{
		Context: c.ctx,
		Filter:  c.fs,
		Xup:     c.xs,
		Steps:   c.steps,
		LogID:   c.ls.id,
	}
}

func (c *Controller) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
