package pipeline

import "time"

// Clock abstracts wall-clock access so timing-sensitive behavior can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
