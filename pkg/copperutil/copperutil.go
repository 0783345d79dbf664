// Package copperutil owns the resources that package copper only borrows:
// the log buffer and the log file.
package copperutil

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ja7ad/copper/pkg/copper"
)

// Copper is a controller together with its log buffer and log file.
// Do not call SetLogging on it; Close releases everything Open created.
type Copper struct {
	copper.Controller

	buf []copper.LogEntry
	f   *os.File
	w   *bufio.Writer
}

// Open initializes a controller and, if lbLength > 0, allocates a log buffer
// of that length. If logFile is also set, the file is created (truncated)
// and receives the header and every flushed entry. logFile is ignored when
// lbLength is 0.
// Constraints: target > 0 and 0 < powerMin <= powerStart <= powerMax.
func Open(target, powerMin, powerMax, powerStart float64, lbLength int, logFile string) (*Copper, error) {
	return OpenWithTuning(target, powerMin, powerMax, powerStart, nil, lbLength, logFile)
}

// OpenWithTuning is like Open but overrides the controller constants with
// the in-range fields of t.
func OpenWithTuning(target, powerMin, powerMax, powerStart float64, t *copper.Tuning, lbLength int, logFile string) (*Copper, error) {
	if lbLength < 0 {
		return nil, fmt.Errorf("%w: negative log buffer length %d", copper.ErrInvalidArgument, lbLength)
	}

	c := &Copper{}
	if err := c.InitWithTuning(target, powerMin, powerMax, powerStart, t); err != nil {
		return nil, err
	}
	if lbLength == 0 {
		return c, nil
	}

	c.buf = make([]copper.LogEntry, lbLength)
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create log dir: %w", copper.ErrIO, err)
		}
		f, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("%w: create log file: %w", copper.ErrIO, err)
		}
		c.f = f
		c.w = bufio.NewWriter(f)
	}

	if err := c.setLogging(); err != nil {
		if c.f != nil {
			_ = c.f.Close()
		}
		return nil, err
	}
	return c, nil
}

// setLogging avoids handing a nil *bufio.Writer to SetLogging as a non-nil io.Writer.
func (c *Copper) setLogging() error {
	if c.w == nil {
		return c.SetLogging(c.buf, nil)
	}
	return c.SetLogging(c.buf, c.w)
}

// Entries returns the log buffer. It is nil when logging is disabled.
func (c *Copper) Entries() []copper.LogEntry { return c.buf }

// Close flushes the log tail, then flushes and closes the log file.
// It is safe to call more than once.
func (c *Copper) Close() error {
	err := c.Controller.Close()
	if c.f == nil {
		return err
	}

	if ferr := c.w.Flush(); ferr != nil {
		err = errors.Join(err, fmt.Errorf("%w: flush log file: %w", copper.ErrIO, ferr))
	}
	if cerr := c.f.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("%w: close log file: %w", copper.ErrIO, cerr))
	}
	c.f, c.w = nil, nil
	// detach the closed file; later entries stay in memory only
	_ = c.setLogging()
	return err
}
