package ai

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// Completer is the surface shared by Service and Breaker.
type Completer interface {
	Available() bool
	Complete(ctx context.Context, p Prompt) Completion
	Probe(ctx context.Context) Completion
}

// BreakerConfig controls when the circuit opens.
type BreakerConfig struct {
	// Failures is the number of consecutive failed completions that opens the circuit.
	Failures uint32
	// Cooldown is how long the circuit stays open before a trial call is let through.
	Cooldown time.Duration
}

// errCallerCanceled marks calls abandoned by the caller; the breaker does not count them as failures.
var errCallerCanceled = errors.New("remote call canceled by caller")

// Breaker stops calling the remote model after repeated failures, so turns
// degrade to the fallback immediately instead of waiting out the timeout.
type Breaker struct {
	inner Completer
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps inner with a circuit breaker.
func NewBreaker(inner Completer, cfg BreakerConfig) *Breaker {
	failures := cfg.Failures
	if failures == 0 {
		failures = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-model",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerCanceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("[ai] circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return &Breaker{inner: inner, cb: cb}
}

// Available reports whether the wrapped model is configured. An open circuit
// does not make the model unavailable.
func (b *Breaker) Available() bool {
	return b != nil && b.inner != nil && b.inner.Available()
}

// Complete forwards to the wrapped model unless the circuit is open.
func (b *Breaker) Complete(ctx context.Context, p Prompt) Completion {
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return failed(ReasonCanceled, err)
	}

	var result Completion
	_, err := b.cb.Execute(func() (interface{}, error) {
		result = b.inner.Complete(ctx, p)
		if result.OK() {
			return nil, nil
		}
		if result.Reason == ReasonCanceled {
			return nil, errCallerCanceled
		}
		if result.Err != nil {
			return nil, result.Err
		}
		return nil, errors.New(string(result.Reason))
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return failed(ReasonCircuitOpen, err)
	}
	return result
}

// Probe bypasses the circuit so status checks see the model's real state.
func (b *Breaker) Probe(ctx context.Context) Completion {
	return b.inner.Probe(ctx)
}

// State returns the circuit state name: closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
