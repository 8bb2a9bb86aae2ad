package session

import (
	"math"
	"time"
)

// ReconnectionConfig holds configuration for the connect retry policy.
type ReconnectionConfig struct {
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	MaxRetries        int // consecutive failures before the circuit opens
}

// DefaultReconnectionConfig returns the default retry policy.
func DefaultReconnectionConfig() ReconnectionConfig {
	return ReconnectionConfig{
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 1.5,
		MaxRetries:        5,
	}
}

// CircuitBreaker tracks consecutive connection failures. Once it opens,
// the session loop stops retrying and terminates.
type CircuitBreaker struct {
	consecutiveFailures int
	maxFailures         int
	isOpen              bool
	lastFailure         time.Time
}

// NewCircuitBreaker creates a circuit breaker that opens after maxFailures
// consecutive failures.
func NewCircuitBreaker(maxFailures int) *CircuitBreaker {
	return &CircuitBreaker{maxFailures: maxFailures}
}

// RecordFailure records a connection failure. Returns true if the circuit
// is now open.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.consecutiveFailures++
	cb.lastFailure = time.Now()
	if cb.consecutiveFailures >= cb.maxFailures {
		cb.isOpen = true
		return true
	}
	return false
}

// RecordSuccess resets the breaker on a successful connection.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.consecutiveFailures = 0
	cb.isOpen = false
}

// IsOpen returns true if the circuit breaker is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.isOpen
}

// ConsecutiveFailures returns the current failure streak.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	return cb.consecutiveFailures
}

// CalculateBackoff returns the wait before the given retry attempt,
// exponential and capped at MaxBackoff.
func CalculateBackoff(cfg ReconnectionConfig, attempt int) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffMultiplier, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}
