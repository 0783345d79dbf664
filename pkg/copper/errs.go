package copper

import "errors"

var (
	// ErrInvalidArgument indicates an out-of-range configuration or per-step
	// input. The call is a no-op when it is returned.
	ErrInvalidArgument = errors.New("copper: invalid argument")

	// ErrIO indicates that writing the log header or flushing buffered log
	// entries to the sink failed.
	ErrIO = errors.New("copper: i/o failure")
)
