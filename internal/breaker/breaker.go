// Package breaker provides a failure-counting circuit breaker used to guard
// outbound calls to external services (LLM provider, rates engine).
package breaker

import (
	"sync"
	"time"
)

// State represents the current circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Breaker is a tri-state circuit breaker. After a run of consecutive
// failures the circuit opens and CanExecute reports false until the cooldown
// elapses; the first call after the cooldown runs as a half-open probe.
// All methods are safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	state               State
	consecutiveFailures int
	halfOpenSuccesses   int
	openedAt            time.Time

	failureThreshold int
	successThreshold int
	cooldown         time.Duration

	totalSuccesses int64
	totalFailures  int64

	// now is replaceable in tests
	now func() time.Time
}

// New creates a Breaker that opens after failureThreshold consecutive
// failures and stays open for the cooldown duration. One successful
// half-open probe closes the circuit again.
func New(failureThreshold int, cooldown time.Duration) *Breaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		successThreshold: 1,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// CanExecute reports whether a call may be attempted right now. When the
// cooldown of an open circuit has elapsed the breaker moves to half-open and
// permits a probe call.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cooldown {
			b.state = StateHalfOpen
			b.halfOpenSuccesses = 0
			return true
		}
		return false
	}
	return false
}

// RecordSuccess records a successful call, closing the circuit when enough
// half-open probes have succeeded.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalSuccesses++
	b.consecutiveFailures = 0

	if b.state == StateHalfOpen {
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.successThreshold {
			b.state = StateClosed
			b.halfOpenSuccesses = 0
		}
	}
}

// RecordFailure records a failed call. A failed half-open probe reopens the
// circuit immediately; in the closed state the circuit opens once the
// consecutive failure threshold is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	b.consecutiveFailures++

	switch b.state {
	case StateHalfOpen:
		b.trip()
	case StateClosed:
		if b.consecutiveFailures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip must be called with the lock held
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.halfOpenSuccesses = 0
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status returns a snapshot of the breaker for health endpoints.
func (b *Breaker) Status() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := map[string]interface{}{
		"state":                string(b.state),
		"consecutive_failures": b.consecutiveFailures,
		"failure_threshold":    b.failureThreshold,
		"cooldown_seconds":     b.cooldown.Seconds(),
		"total_successes":      b.totalSuccesses,
		"total_failures":       b.totalFailures,
	}
	if b.state == StateOpen {
		remaining := b.cooldown - b.now().Sub(b.openedAt)
		if remaining < 0 {
			remaining = 0
		}
		status["seconds_until_retry"] = remaining.Seconds()
	}
	return status
}
