// Package copper is a feedback controller that keeps an application's
// measured performance near a target by adjusting a bounded cost cap,
// typically a power cap (watts, microwatts, any unit).
//
// The controller is embedded in the host's own loop: the host measures its
// performance periodically, calls Adapt, and applies the returned cap.
// The package never measures performance and never touches hardware.
//
// Overview
//
//   - Controller:
//     New(target, min, max, start) / Init(...)
//     Adapt(tag, performance) (cap, error)
//     SetPerformanceTarget, SetGainLimit, SetLogging, Close
//
//     Each Adapt call runs one estimate -> control -> cap step and
//     returns a cap in [min, max].
//
//   - Workload estimator: a scalar Kalman filter that learns the
//     application's base workload, using the previous xup (cap/min) as the
//     observation coefficient.
//
//   - Control law: a pole-placement controller (poles P1, P2, zero Z1,
//     adaptation rate MU) that turns the performance error into a new xup.
//     The xup is clamped to [1, max/min] before gain limiting, so large
//     errors are always corrected. Once the confidence zone
//     ceil(ln(EPC)/ln(P1)) has passed, the gain limit GL scales xup by
//
//     1 - GL * 1/(|Δe|+1) * (1 - 1/(|e|+1))
//
//     with errors normalized by the target.
//
//   - Log recorder: an optional circular buffer of LogEntry owned by the
//     caller. Every step writes slot id%len(buf); when the last slot is
//     written the buffer is flushed to the sink (an io.Writer, also owned by
//     the caller) as fixed-width rows. Close flushes the remaining tail.
//
// # Errors
//
//   - ErrInvalidArgument: bad configuration or per-step input. No state is
//     modified.
//   - ErrIO: the log header (SetLogging) or the tail flush (Close) could not
//     be written. Flush failures inside Adapt are dropped so the control loop
//     keeps running; they are reported to the logger set with SetLogger.
//
// # Log format
//
// One row per entry, 16-character right-aligned columns:
//
//	ID USER_TAG CONSTRAINT X_HAT_MINUS X_HAT P_MINUS H K P WORKLOAD XUP ERROR COST
//
// # Concurrency
//
// A Controller is a plain value with no goroutines or locks. Calls into one
// instance must be serialized; separate instances share nothing.
package copper
