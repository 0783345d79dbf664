package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/copper/pkg/copper"
)

// Scenario describes one simulated closed loop.
type Scenario struct {
	Target    float64      `yaml:"target"`
	Power     PowerConfig  `yaml:"power"`
	Tuning    TuningConfig `yaml:"tuning"`
	Window    int          `yaml:"window"`   // adapt every Window iterations
	Interval  string       `yaml:"interval"` // simulated time per iteration, e.g. "100ms"
	EMA       float64      `yaml:"ema"`      // smoothing of measured performance [0..1]
	Seed      uint64       `yaml:"seed"`
	IdlePower float64      `yaml:"idle_power"`
	Tolerance float64      `yaml:"tolerance"` // fraction of target counted as on target
	Phases    []Phase      `yaml:"phases"`
}

// PowerConfig holds the cap bounds, in watts.
type PowerConfig struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Start float64 `yaml:"start"`
}

// TuningConfig mirrors copper.Tuning; out of range values keep the defaults.
type TuningConfig struct {
	P1        float64 `yaml:"p1"`
	P2        float64 `yaml:"p2"`
	Z1        float64 `yaml:"z1"`
	MU        float64 `yaml:"mu"`
	EPC       float64 `yaml:"epc"`
	GainLimit float64 `yaml:"gain_limit"`
	Q         float64 `yaml:"q"`
	R         float64 `yaml:"r"`
}

// Phase is a stretch of iterations with constant plant behaviour.
type Phase struct {
	Iterations int     `yaml:"iterations"`
	Rate       float64 `yaml:"rate"`  // performance per unit of xup (cap/min)
	Noise      float64 `yaml:"noise"` // relative gaussian noise, 0 = none
}

// DefaultScenario mirrors the basic usage example: target 100, 10..100 W
// starting at 60 W, adapting every second iteration. The plant speeds up
// halfway through.
func DefaultScenario() *Scenario {
	return &Scenario{
		Target: 100,
		Power: PowerConfig{
			Min:   10,
			Max:   100,
			Start: 60,
		},
		Window:    2,
		Interval:  "100ms",
		EMA:       1,
		Seed:      1,
		Tolerance: 0.05,
		Phases: []Phase{
			{Iterations: 40, Rate: 20, Noise: 0.02},
			{Iterations: 40, Rate: 40, Noise: 0.02},
		},
	}
}

// LoadScenario reads a scenario from YAML; missing fields keep the defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s := DefaultScenario()
	// phases from the file replace the default ones entirely
	s.Phases = nil
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Phases) == 0 {
		s.Phases = DefaultScenario().Phases
	}
	return s, nil
}

// Validate checks the fields the controller does not validate itself.
func (s *Scenario) Validate() error {
	if s.Window <= 0 {
		return fmt.Errorf("window must be > 0")
	}
	if s.EMA < 0 || s.EMA > 1 {
		return fmt.Errorf("ema must be in [0,1]")
	}
	if s.Tuning.GainLimit < 0 || s.Tuning.GainLimit >= 1 {
		return fmt.Errorf("gain_limit must be in [0,1)")
	}
	if s.Tolerance < 0 || s.Tolerance > 1 {
		return fmt.Errorf("tolerance must be in [0,1]")
	}
	if s.IdlePower < 0 {
		return fmt.Errorf("idle_power must be >= 0")
	}
	if _, err := s.IntervalDuration(); err != nil {
		return err
	}
	for i, p := range s.Phases {
		if p.Iterations <= 0 {
			return fmt.Errorf("phase %d: iterations must be > 0", i)
		}
		if p.Rate <= 0 {
			return fmt.Errorf("phase %d: rate must be > 0", i)
		}
		if p.Noise < 0 {
			return fmt.Errorf("phase %d: noise must be >= 0", i)
		}
	}
	return nil
}

// IntervalDuration parses Interval.
func (s *Scenario) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0, fmt.Errorf("interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}

// Iterations is the total length of all phases.
func (s *Scenario) Iterations() int {
	var n int
	for _, p := range s.Phases {
		n += p.Iterations
	}
	return n
}

// CopperTuning converts the YAML tuning block.
func (s *Scenario) CopperTuning() *copper.Tuning {
	t := s.Tuning
	return &copper.Tuning{
		P1:        t.P1,
		P2:        t.P2,
		Z1:        t.Z1,
		MU:        t.MU,
		EPC:       t.EPC,
		GainLimit: t.GainLimit,
		Q:         t.Q,
		R:         t.R,
	}
}
