package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (s *scriptedProvider) Name() string      { return "scripted" }
func (s *scriptedProvider) ModelName() string { return "scripted-1" }

func (s *scriptedProvider) Generate(context.Context, []Message) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return "done", nil
}

func TestWithRetry_Disabled(t *testing.T) {
	p := &scriptedProvider{}
	assert.Same(t, Provider(p), WithRetry(p, 0))
}

func TestWithRetry_RetriesTransient(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		&StatusError{Provider: "google", StatusCode: 503, Message: "busy"},
		&TransportError{Provider: "google", Err: errors.New("connection reset by peer")},
	}}
	r := WithRetry(p, 3).(*RetryProvider)
	r.baseDelay = time.Millisecond

	text, err := r.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, "scripted-1", r.ModelName())
}

func TestWithRetry_StopsOnPermanent(t *testing.T) {
	p := &scriptedProvider{errs: []error{&StatusError{Provider: "google", StatusCode: 401, Message: "bad key"}}}
	r := WithRetry(p, 3).(*RetryProvider)
	r.baseDelay = time.Millisecond

	_, err := r.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestWithBreaker_OpensAfterFailures(t *testing.T) {
	boom := &StatusError{Provider: "google", StatusCode: 500, Message: "boom"}
	p := &scriptedProvider{errs: []error{boom, boom, boom, boom}}
	b := WithBreaker(p, BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := b.Generate(context.Background(), nil)
		assert.ErrorAs(t, err, &boom)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 2, p.calls, "open breaker must not reach the provider")
}
