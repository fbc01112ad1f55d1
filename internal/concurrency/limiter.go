package concurrency

import (
	"context"
	"runtime"

	"pdfpress/internal/common"
)

// Limiter bounds the number of external tool subprocesses running at once.
// Each request owns disjoint temporary files, so a counting semaphore over
// the subprocess slots is the only coordination needed.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a limiter with the given number of slots. A non-positive
// size falls back to the optimal worker count for the host.
func NewLimiter(size int) *Limiter {
	if size <= 0 {
		size = OptimalWorkerCount()
	}
	return &Limiter{slots: make(chan struct{}, size)}
}

// OptimalWorkerCount caps subprocess concurrency at the CPU count, bounded
// by the global concurrency limit.
func OptimalWorkerCount() int {
	n := runtime.NumCPU()
	if n > common.MaxConcurrencyLimit {
		n = common.MaxConcurrencyLimit
	}
	return n
}

// Acquire blocks until a slot is free or the context is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (l *Limiter) Release() {
	<-l.slots
}

// Size returns the limiter capacity.
func (l *Limiter) Size() int {
	return cap(l.slots)
}
