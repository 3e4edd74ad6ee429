package registry

import "context"

// Limiter is a counting semaphore bounding how many tool processes a registry
// may have in flight at once. Acquire and Release must be paired on every
// exit path; Registry.Execute does this with a deferred release so permits
// survive failures, timeouts and cancellation.
type Limiter struct {
	sem chan struct{}
}

// NewLimiter creates a limiter allowing up to n concurrent acquisitions.
func NewLimiter(n int) *Limiter {
	return &Limiter{sem: make(chan struct{}, n)}
}

// Acquire blocks until a permit is available or the context is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a previously acquired permit.
func (l *Limiter) Release() {
	<-l.sem
}

// InFlight returns the number of currently held permits.
func (l *Limiter) InFlight() int {
	return len(l.sem)
}

// Cap returns the maximum number of concurrent permits.
func (l *Limiter) Cap() int {
	return cap(l.sem)
}
