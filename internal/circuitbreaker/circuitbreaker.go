// Package circuitbreaker wraps sony/gobreaker with application defaults and error codes.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/blockterm/internal/apperror"
)

// Config holds circuit breaker settings.
type Config struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears counts while closed; 0 never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// IsSuccessful classifies errors; nil counts every error as a failure.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns the settings used for node and explorer calls.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// CircuitBreaker is a typed breaker.
type CircuitBreaker[T any] struct {
	cb   *gobreaker.CircuitBreaker[T]
	name string
}

// New creates a breaker from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  cfg.IsSuccessful,
	}

	return &CircuitBreaker[T]{
		cb:   gobreaker.NewCircuitBreaker[T](settings),
		name: cfg.Name,
	}
}

// Execute runs fn unless the breaker is open. Breaker rejections come back
// as apperror codes so callers can tell them from upstream failures.
func (b *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return result, apperror.New(apperror.CodeCircuitOpen, apperror.WithContext(b.name), apperror.WithCause(err))
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return result, apperror.New(apperror.CodeCircuitHalfOpen, apperror.WithContext(b.name), apperror.WithCause(err))
	}
	return result, err
}

// State returns the current breaker state.
func (b *CircuitBreaker[T]) State() gobreaker.State {
	return b.cb.State()
}

// Name returns the breaker name.
func (b *CircuitBreaker[T]) Name() string {
	return b.name
}

// IgnoreNotFound treats "no such block/transaction" answers as successes so
// lookups of unknown hashes do not trip the breaker.
func IgnoreNotFound(notFound error) func(error) bool {
	return func(err error) bool {
		return err == nil || errors.Is(err, notFound)
	}
}
