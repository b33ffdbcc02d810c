package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	result *Completion
	err    error
	delay  time.Duration
}

func (s *stubBackend) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestChainUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubBackend{result: &Completion{Text: "from primary"}}
	chain := NewChain(primary, time.Second, nil, 0, NewBuiltinBackend())

	result, err := chain.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, TierPrimary, result.Tier)
	assert.Equal(t, "from primary", result.Text)
}

func TestChainFallsBackOnPrimaryError(t *testing.T) {
	primary := &stubBackend{err: errors.New("primary down")}
	fallback := &stubBackend{result: &Completion{Text: "from fallback"}}
	chain := NewChain(primary, time.Second, fallback, time.Second, NewBuiltinBackend())

	result, err := chain.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, TierFallback, result.Tier)
	assert.Equal(t, "from fallback", result.Text)
}

func TestChainFallsBackToBuiltinWhenAllConfiguredFail(t *testing.T) {
	primary := &stubBackend{err: errors.New("primary down")}
	fallback := &stubBackend{err: errors.New("fallback down")}
	chain := NewChain(primary, time.Second, fallback, time.Second, NewBuiltinBackend())

	result, err := chain.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello there"}})
	require.NoError(t, err)
	assert.Equal(t, TierBuiltin, result.Tier)
	assert.Equal(t, "hello there", result.Text)
}

func TestChainWithNoOptionalBackendsUsesBuiltin(t *testing.T) {
	chain := NewChain(nil, 0, nil, 0, NewBuiltinBackend())

	result, err := chain.Complete(context.Background(), []Message{{Role: RoleUser, Content: "ping"}})
	require.NoError(t, err)
	assert.Equal(t, TierBuiltin, result.Tier)
}

func TestChainTimesOutSlowPrimary(t *testing.T) {
	primary := &stubBackend{delay: 50 * time.Millisecond, result: &Completion{Text: "too slow"}}
	fallback := &stubBackend{result: &Completion{Text: "fast fallback"}}
	chain := NewChain(primary, 5*time.Millisecond, fallback, time.Second, NewBuiltinBackend())

	result, err := chain.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, TierFallback, result.Tier)
}

func TestChainPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubBackend{delay: time.Millisecond, err: errors.New("unreachable")}
	chain := NewChain(primary, time.Second, nil, 0, NewBuiltinBackend())

	_, err := chain.Complete(ctx, []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
}

func TestBuiltinBackendEchoesLastUserMessage(t *testing.T) {
	b := NewBuiltinBackend()
	result, err := b.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "system prompt"},
		{Role: RoleUser, Content: "what is the capital of France"},
	})
	require.NoError(t, err)
	assert.Equal(t, "what is the capital of France", result.Text)
}

func TestIsNonRetryableOpenAIErrorClassifiesClientErrors(t *testing.T) {
	assert.True(t, isNonRetryableOpenAIError(&openai.APIError{HTTPStatusCode: 400}))
	assert.True(t, isNonRetryableOpenAIError(&openai.APIError{HTTPStatusCode: 401}))
	assert.False(t, isNonRetryableOpenAIError(&openai.APIError{HTTPStatusCode: 500}))
	assert.False(t, isNonRetryableOpenAIError(errors.New("network blip")))
}
