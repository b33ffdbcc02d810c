// Package ratelimit enforces the shared-resource policy of spec.md §5: one
// token-bucket limiter per external endpoint (LLM, NER, embedder), shared
// across construct, induce, and agent so concurrent callers don't overrun
// a provider's quota.
package ratelimit

import (
	"context"

	"github.com/kgraph/corekg/helper"
	"golang.org/x/time/rate"
)

// Limiter wraps golang.org/x/time/rate.Limiter with the core's error
// taxonomy, surfacing exhaustion as RateLimitedError instead of a bare
// context cancellation.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New constructs a Limiter permitting ratePerSecond requests per second
// with a burst of burst.
func New(name string, ratePerSecond float64, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		name:    name,
	}
}

// Wait blocks until a token is available or ctx is done, returning
// RateLimitedError if ctx expires first.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return helper.NewKindError("rate limit wait ("+l.name+")", helper.ErrRateLimited, err)
	}
	return nil
}

// Allow reports whether a request may proceed immediately without
// consuming the wait budget, useful for fail-fast call sites.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Endpoints groups the three external-provider limiters construct/induce/
// agent share, per spec.md §5.
type Endpoints struct {
	LLM      *Limiter
	NER      *Limiter
	Embedder *Limiter
}

// NewEndpoints constructs the standard limiter set with the given
// requests-per-second rate and burst for each endpoint.
func NewEndpoints(llmRPS, nerRPS, embedderRPS float64, burst int) *Endpoints {
	return &Endpoints{
		LLM:      New("llm", llmRPS, burst),
		NER:      New("ner", nerRPS, burst),
		Embedder: New("embedder", embedderRPS, burst),
	}
}
