package copper

// FilterState is the state of the scalar Kalman filter used to estimate
// the application's base workload.
type FilterState struct {
	XHatMinus float64
	XHat      float64
	PMinus    float64
	H         float64
	K         float64
	P         float64
	// constants
	Q float64
	R float64
}

// XupState holds the control law history and tuning constants.
// U is the current xup, UO and UOO the two previous values.
type XupState struct {
	U   float64
	UO  float64
	UOO float64
	E   float64
	EO  float64
	// constants
	P1  float64
	P2  float64
	Z1  float64
	MU  float64
	EPC float64
	GL  float64
}

// Context stores the user-defined target and cost bounds.
type Context struct {
	Target  float64
	CostMin float64
	CostMax float64
}

// LogEntry is one row of the circular log buffer.
type LogEntry struct {
	ID          uint64
	UserTag     uint64
	Performance float64
	// Kalman filter values
	Filter   FilterState
	Workload float64
	// controller xup and error
	Xup   float64
	Error float64
	Cost  float64
}

// State is a read-only copy of the controller internals.
type State struct {
	Context Context
	Filter  FilterState
	Xup     XupState
	// Steps counts successful Adapt calls since Init.
	Steps uint64
	// LogID is the next log sequence id.
	LogID uint64
}

// Tuning overrides the controller constants.
// Units:
//   - P1/P2: closed-loop poles [0..1)
//   - Z1: closed-loop zero, |Z1| < 1
//   - MU: adaptation rate, > 0
//   - EPC: confidence zone epsilon (0..1)
//   - GainLimit: [0..1), 0 disables gain limiting
//   - Q/R: Kalman process and observation noise, > 0
type Tuning struct {
	P1        float64
	P2        float64
	Z1        float64
	MU        float64
	EPC       float64
	GainLimit float64
	Q         float64
	R         float64
}

// filter start values
const (
	xHatMinusStart = 0.0
	xHatStart      = 0.2
	pStart         = 1.0
	pMinusStart    = 0.0
	hStart         = 0.0
	kStart         = 0.0
)

// xup start values
const (
	eStart  = 0.0
	eoStart = 0.0
)

// _defaultTuning returns the constants the controller was characterized with.
func _defaultTuning() *Tuning {
	return &Tuning{
		P1:        0.0,
		P2:        0.0,
		Z1:        0.0,
		MU:        1.0,
		EPC:       0.05,
		GainLimit: 0.0,
		Q:         0.00001,
		R:         0.01,
	}
}

// mergeTuning applies in-range fields of t on top of the defaults.
// Notes:
//   - Poles, zero and gain limit are accepted verbatim when in range (0 is valid).
//   - MU, Q and R must be > 0 to override defaults.
//   - EPC must be strictly inside (0, 1).
func mergeTuning(t *Tuning) Tuning {
	merged := *_defaultTuning()
	if t == nil {
		return merged
	}

	if t.P1 >= 0 && t.P1 < 1 {
		merged.P1 = t.P1
	}
	if t.P2 >= 0 && t.P2 < 1 {
		merged.P2 = t.P2
	}
	if t.Z1 > -1 && t.Z1 < 1 {
		merged.Z1 = t.Z1
	}
	if t.GainLimit >= 0 && t.GainLimit < 1 {
		merged.GainLimit = t.GainLimit
	}

	// Positive-only overrides
	if t.MU > 0 {
		merged.MU = t.MU
	}
	if t.Q > 0 {
		merged.Q = t.Q
	}
	if t.R > 0 {
		merged.R = t.R
	}

	if t.EPC > 0 && t.EPC < 1 {
		merged.EPC = t.EPC
	}

	return merged
}
