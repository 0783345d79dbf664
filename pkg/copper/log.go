package copper

import (
	"fmt"
	"io"
)

const (
	_headerFormat = "%16s %16s %16s " +
		"%16s %16s %16s %16s %16s %16s " +
		"%16s %16s %16s %16s\n"
	_rowFormat = "%16d %16d %16f " +
		"%16f %16f %16f %16f %16f %16f " +
		"%16f %16f %16f %16f\n"
)

// logState maintains logging config and the circular buffer position.
// The buffer and sink belong to the caller.
type logState struct {
	id   uint64
	buf  []LogEntry
	sink io.Writer
	// entries written since the last flush; they always occupy the slots
	// immediately before id%len(buf)
	unflushed int
}

// WriteHeader writes the column names row of the log format to w.
func WriteHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, _headerFormat,
		"ID", "USER_TAG", "CONSTRAINT",
		"X_HAT_MINUS", "X_HAT", "P_MINUS", "H", "K", "P",
		"WORKLOAD", "XUP", "ERROR", "COST")
	return err
}

// WriteEntries writes entries to w as fixed-width rows, in slice order.
func WriteEntries(w io.Writer, entries []LogEntry) error {
	for i := range entries {
		e := &entries[i]
		if _, err := fmt.Fprintf(w, _rowFormat,
			e.ID, e.UserTag, e.Performance,
			e.Filter.XHatMinus, e.Filter.XHat, e.Filter.PMinus, e.Filter.H, e.Filter.K, e.Filter.P,
			e.Workload, e.Xup, e.Error, e.Cost); err != nil {
			return err
		}
	}
	return nil
}

// flush writes the unflushed entries that end right before slot end.
func (ls *logState) flush(end int) error {
	start := end - ls.unflushed
	ls.unflushed = 0
	if ls.sink == nil || start >= end {
		return nil
	}
	if err := WriteEntries(ls.sink, ls.buf[start:end]); err != nil {
		return fmt.Errorf("%w: flush log: %w", ErrIO, err)
	}
	return nil
}

// record stores a snapshot of this step in the circular buffer and flushes
// the buffer to the sink when the last slot is written. Flush failures do
// not interrupt the control loop.
func (c *Controller) record(tag uint64, performance, workload, cost float64) {
	ls := &c.ls
	n := len(ls.buf)
	if n == 0 {
		return
	}

	i := int(ls.id % uint64(n))
	ls.buf[i] = LogEntry{
		ID:          ls.id,
		UserTag:     tag,
		Performance: performance,
		Filter:      c.fs,
		Workload:    workload,
		Xup:         c.xs.U,
		Error:       c.xs.E,
		Cost:        cost,
	}
	ls.unflushed++

	if i == n-1 {
		if err := ls.flush(n); err != nil {
			c.log().Warn("log flush failed", "id", ls.id, "err", err)
		}
	}
	ls.id++
}
