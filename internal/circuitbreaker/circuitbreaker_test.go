package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/blockterm/internal/apperror"
)

var errUpstream = errors.New("upstream down")

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("rpc")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := New[int](cfg)
	fail := func() (int, error) { return 0, errUpstream }

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(fail)
		require.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	assert.False(t, called, "open breaker must not call through")
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
}

func TestCircuitBreaker_IgnoreNotFound(t *testing.T) {
	notFound := errors.New("not found")

	cfg := DefaultConfig("lookup")
	cfg.ConsecutiveFailures = 1
	cfg.IsSuccessful = IgnoreNotFound(notFound)

	cb := New[string](cfg)
	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (string, error) { return "", notFound })
		assert.ErrorIs(t, err, notFound)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, "lookup", cb.Name())
}
