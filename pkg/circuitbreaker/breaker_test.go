package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newBreaker(resetTimeout time.Duration) *CircuitBreaker {
	return New(Config{
		FailureThreshold: 3,
		ResetTimeout:     resetTimeout,
		HalfOpenMaxCalls: 2,
	})
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := newBreaker(time.Minute)

	assert.Equal(t, StateClosed, cb.GetState())
	assert.True(t, cb.Allow())

	cb.Failure()
	cb.Failure()
	assert.Equal(t, StateClosed, cb.GetState())

	cb.Failure()
	assert.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := newBreaker(time.Minute)

	cb.Failure()
	cb.Failure()
	cb.Success()

	cb.Failure()
	cb.Failure()
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerHalfOpenProbes(t *testing.T) {
	cb := newBreaker(0)

	cb.Failure()
	cb.Failure()
	cb.Failure()
	assert.Equal(t, StateOpen, cb.GetState())

	// Zero reset timeout means the next Allow starts probing immediately
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.GetState())

	// One more probe fits under HalfOpenMaxCalls, then calls are rejected
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())
}

func TestBreakerClosesOnSuccessfulProbe(t *testing.T) {
	cb := newBreaker(0)

	cb.Failure()
	cb.Failure()
	cb.Failure()

	assert.True(t, cb.Allow())
	cb.Success()
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := newBreaker(time.Hour)

	cb.Failure()
	cb.Failure()
	cb.Failure()

	// Force the probe window open
	cb.mu.Lock()
	cb.lastStateChange = time.Now().Add(-2 * time.Hour)
	cb.mu.Unlock()

	assert.True(t, cb.Allow())
	cb.Failure()
	assert.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.Allow())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
