package consumption

import "github.com/ja7ad/copper/pkg/types"

// Config holds accounting parameters.
// Units:
//   - Target: performance units, same as the controller target (0 = no on-target accounting)
//   - Tolerance: fraction of Target counted as "on target" [0..1]
//   - IdlePower: Watts drawn regardless of the cap
type Config struct {
	Target    float64
	Tolerance float64
	IdlePower float64
}

// _defaultConfig returns a Config pre-filled with the defaults.
func _defaultConfig() *Config {
	return &Config{
		Target:    0.0,  // disabled
		Tolerance: 0.05, // +-5% of target
		IdlePower: 0.0,  // W outside the capped domain
	}
}

// Sample is one control window.
type Sample struct {
	TimeSec     float64     // window length
	Cap         types.Power // cap applied during the window
	Performance float64     // performance measured at the end of the window
}

// Result is the accounting for one window, or the averages over all windows.
type Result struct {
	Power       types.Power // W drawn (cap + idle)
	Performance float64
	Efficiency  float64 // performance per watt
	OnTarget    float64 // 1 if within tolerance; averages give the fraction
}
