package policy

import (
	"errors"
	"fmt"
	"time"

	"pdfpress/internal/pipeline"
)

// ErrUploadsRestricted indicates that the upload window policy rejected the
// request.
var ErrUploadsRestricted = errors.New("uploads are temporarily restricted at this time")

// Window blocks uploads while the server's local wall clock reads exactly
// the configured minute of day. The exact-equality match is an inherited
// operational rule and is kept as is.
type Window struct {
	clock   pipeline.Clock
	hour    int
	minute  int
	enabled bool
}

// NewWindow creates an upload restriction window. Restriction fires only when
// enabled and the current hh:mm equals hour:minute.
func NewWindow(clock pipeline.Clock, hour, minute int, enabled bool) *Window {
	if clock == nil {
		clock = pipeline.SystemClock{}
	}
	return &Window{
		clock:   clock,
		hour:    hour,
		minute:  minute,
		enabled: enabled,
	}
}

// Allowed reports whether uploads may proceed right now.
func (w *Window) Allowed() bool {
	if !w.enabled {
		return true
	}
	now := w.clock.Now()
	return !(now.Hour() == w.hour && now.Minute() == w.minute)
}

// Check fails with ErrUploadsRestricted when the window is active.
func (w *Window) Check() error {
	if w.Allowed() {
		return nil
	}
	return fmt.Errorf("%w (%02d:%02d)", ErrUploadsRestricted, w.hour, w.minute)
}

// ParseClockTime parses an "hh:mm" string into its hour and minute parts.
func ParseClockTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
