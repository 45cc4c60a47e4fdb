package provider

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jeanpaul/sakemate/internal/logging"
)

type BreakerSettings struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// BreakerProvider fails fast while the AI service keeps failing.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[string]
}

func WithBreaker(p Provider, s BreakerSettings) *BreakerProvider {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a cancelled caller says nothing about the service
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("AI circuit breaker state changed")
		},
	})
	return &BreakerProvider{inner: p, cb: cb}
}

func (b *BreakerProvider) Name() string { return b.inner.Name() }

func (b *BreakerProvider) ModelName() string { return b.inner.ModelName() }

func (b *BreakerProvider) Generate(ctx context.Context, msgs []Message) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.inner.Generate(ctx, msgs)
	})
}

// State reports the breaker state for health output.
func (b *BreakerProvider) State() string { return b.cb.State().String() }
