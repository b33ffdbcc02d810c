// Package llm provides the core's text-completion backend: a thin
// sashabaranov/go-openai wrapper grounded on the ai-nexus client adapter,
// composed into the three-tier fallback chain (primary, secondary,
// deterministic built-in) spec.md §4.3/§4.5 requires.
package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kgraph/corekg/helper"
	openai "github.com/sashabaranov/go-openai"
)

// Message is one turn of a completion request.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Completion is the result of one Backend.Complete call.
type Completion struct {
	Text string
}

// Backend completes a chat-style prompt. Implementations must respect
// ctx cancellation/deadline.
type Backend interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// OpenAIBackend is a Backend implemented over the OpenAI chat completions
// API (or any OpenAI-compatible endpoint reachable at baseURL).
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	maxRetryFor time.Duration
}

// NewOpenAIBackend constructs a Backend pointed at baseURL (empty uses the
// official OpenAI API) using apiKey and model. Transient request failures
// are retried with exponential backoff for up to 10s before giving up.
func NewOpenAIBackend(baseURL, apiKey, model string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), model: model, maxRetryFor: 10 * time.Second}
}

// Complete sends messages to the chat completions endpoint and returns the
// first choice's content.
func (b *OpenAIBackend) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	oaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		oaiMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	req := openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: oaiMessages,
	}

	bo := backoff.WithContext(backoff.WithMaxElapsedTime(backoff.NewExponentialBackOff(), b.maxRetryFor), ctx)

	var resp openai.ChatCompletionResponse
	err := backoff.Retry(func() error {
		var callErr error
		resp, callErr = b.client.CreateChatCompletion(ctx, req)
		if callErr == nil {
			return nil
		}
		if isNonRetryableOpenAIError(callErr) {
			return backoff.Permanent(callErr)
		}
		return callErr
	}, bo)
	if err != nil {
		return nil, helper.NewKindError("llm complete", helper.ErrLLMUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, helper.NewKindError("llm complete", helper.ErrLLMUnavailable,
			errNoChoices)
	}

	return &Completion{Text: resp.Choices[0].Message.Content}, nil
}

// isNonRetryableOpenAIError reports whether err represents a client-side
// failure (bad request, auth, not found) that a retry cannot fix.
func isNonRetryableOpenAIError(err error) bool {
	var apiErr *openai.APIError
	if ok := asAPIError(err, &apiErr); ok {
		switch apiErr.HTTPStatusCode {
		case 400, 401, 403, 404, 422:
			return true
		}
	}
	return false
}

func asAPIError(err error, target **openai.APIError) bool {
	for err != nil {
		if apiErr, ok := err.(*openai.APIError); ok {
			*target = apiErr
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

var errNoChoices = completionError("no choices returned")

type completionError string

func (e completionError) Error() string { return string(e) }

// Tier identifies which chain entry actually produced a completion, so
// callers (induce.Inducer, agent.Agent) can surface source_tier in their
// results.
type Tier int

const (
	TierPrimary Tier = iota + 1
	TierFallback
	TierBuiltin
)

// TieredCompletion wraps a Completion with the tier that produced it.
type TieredCompletion struct {
	Completion
	Tier Tier
}

// entry is one chain link: a Backend plus the timeout applied to calls
// against it.
type entry struct {
	tier    Tier
	backend Backend
	timeout time.Duration
}

// Chain is the three-tier fallback combinator of spec.md §4.5: primary,
// then fallback, then a built-in deterministic backend that never fails
// and never calls the network.
type Chain struct {
	entries []entry
}

// NewChain builds a Chain. primary and fallback may be nil when not
// configured (e.g. no LLM_FALLBACK_URL set); builtin must not be nil and
// anchors the chain so Complete always succeeds.
func NewChain(primary Backend, primaryTimeout time.Duration, fallback Backend, fallbackTimeout time.Duration, builtin Backend) *Chain {
	c := &Chain{}
	if primary != nil {
		c.entries = append(c.entries, entry{tier: TierPrimary, backend: primary, timeout: primaryTimeout})
	}
	if fallback != nil {
		c.entries = append(c.entries, entry{tier: TierFallback, backend: fallback, timeout: fallbackTimeout})
	}
	c.entries = append(c.entries, entry{tier: TierBuiltin, backend: builtin, timeout: 0})
	return c
}

// Complete tries each entry in order, moving to the next on any error
// (including a per-entry timeout), and reports which tier answered.
func (c *Chain) Complete(ctx context.Context, messages []Message) (*TieredCompletion, error) {
	var lastErr error

	for _, e := range c.entries {
		callCtx := ctx
		var cancel context.CancelFunc
		if e.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		}

		result, err := e.backend.Complete(callCtx, messages)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return &TieredCompletion{Completion: *result, Tier: e.tier}, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, helper.NewKindError("llm chain complete", helper.ErrCancelled, ctx.Err())
		}
	}

	return nil, helper.NewKindError("llm chain complete", helper.ErrLLMUnavailable, lastErr)
}
