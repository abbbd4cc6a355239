// Package circuit shields a vendor endpoint that keeps failing: after a run
// of failures the breaker opens and rejects calls locally until a cooldown
// passes, then lets probe traffic through before trusting the vendor again.
package circuit

import (
	"fmt"
	"sync"
	"time"
)

// State is the breaker's position in the failure cycle.
type State int

const (
	// Closed passes all traffic through.
	Closed State = iota
	// Open rejects all traffic until the cooldown elapses.
	Open
	// HalfOpen passes probe traffic to see if the vendor recovered.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config tunes how quickly the breaker opens and recovers.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the circuit.
	FailureThreshold int `json:"failure_threshold"`
	// SuccessThreshold is the half-open success count that closes it again.
	SuccessThreshold int `json:"success_threshold"`
	// Timeout is the open-state cooldown before probe traffic is allowed.
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig opens after 5 straight failures and probes after 30s.
//
//nolint:gochecknoglobals // Sensible default config pattern
var DefaultConfig = Config{
	FailureThreshold: 5,
	SuccessThreshold: 3,
	Timeout:          30 * time.Second,
}

// Error is returned for calls rejected while the circuit is not closed.
type Error struct {
	State State
}

func (e *Error) Error() string {
	return fmt.Sprintf("circuit breaker is %s", e.State)
}

// Breaker tracks vendor health from call outcomes and gates new calls.
type Breaker interface {
	// Allow reports whether a call may proceed right now.
	Allow() bool

	// Record feeds one call outcome into the state machine.
	Record(success bool)

	// GetState returns the current state.
	GetState() State

	// Reset forces the breaker closed and clears its counters.
	Reset()
}

//nolint:govet // Logical field grouping preferred over memory alignment
type breaker struct {
	config          Config
	mu              sync.RWMutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// New creates a closed breaker with the given thresholds.
func New(config Config) Breaker {
	return &breaker{
		config: config,
		state:  Closed,
	}
}

// Allow also performs the open-to-half-open transition once the cooldown has
// elapsed, so rejected vendors get probed without a background timer.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true

	case Open:
		if time.Since(b.lastFailureTime) >= b.config.Timeout {
			b.state = HalfOpen
			b.successCount = 0
			return true
		}
		return false

	case HalfOpen:
		return true

	default:
		return false
	}
}

func (b *breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.onSuccess()
	} else {
		b.onFailure()
	}
}

func (b *breaker) GetState() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = Closed
	b.failureCount = 0
	b.successCount = 0
}

func (b *breaker) onSuccess() {
	switch b.state {
	case Closed:
		b.failureCount = 0

	case HalfOpen:
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.state = Closed
			b.failureCount = 0
			b.successCount = 0
		}
	}
}

func (b *breaker) onFailure() {
	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case Closed:
		if b.failureCount >= b.config.FailureThreshold {
			b.state = Open
		}

	case HalfOpen:
		// One failed probe reopens the circuit.
		b.state = Open
		b.successCount = 0
	}
}
