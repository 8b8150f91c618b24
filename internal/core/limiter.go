package core

// limiter.go bounds concurrent round trips to the document service.
//
// Every upload and export acquires a slot before it calls the service. When
// all slots are taken a caller waits up to maxWait and then fails with
// ErrServiceBusy, which the orchestrators turn into UploadFailed or
// ExportFailed. WaitForDrain lets shutdown block until in-flight round trips
// have finished.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrServiceBusy is returned when no round-trip slot frees up within maxWait.
var ErrServiceBusy = errors.New("document service busy, try again shortly")

// DefaultMaxRoundTrips is the default number of parallel service calls.
const DefaultMaxRoundTrips = 4

// DefaultMaxWait is how long a caller waits for a slot before giving up.
const DefaultMaxWait = 30 * time.Second

// Limiter is a counting semaphore over document-service round trips.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed whenever active == 0
}

// NewLimiter creates a limiter allowing maxConcurrent simultaneous round trips.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxRoundTrips
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	idle := make(chan struct{})
	close(idle)
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot. The caller must Release it exactly once.
func (l *Limiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		if l.active == 0 {
			l.idle = make(chan struct{})
		}
		l.active++
		l.mu.Unlock()
		return nil
	case <-timer.C:
		return ErrServiceBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// Do runs fn while holding a slot.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount returns the number of in-flight round trips.
func (l *Limiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until no round trip is in flight or ctx is done.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of the limiter for the status endpoint.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
