package llm

import (
	"context"
	"strings"
)

// BuiltinBackend is the Tier-3 fallback: a deterministic, network-free
// backend that always succeeds. It never attempts real language
// understanding; it exists so the chain can guarantee an answer even when
// every configured LLM endpoint is unreachable, per spec.md's "system
// degrades, never blocks" requirement.
type BuiltinBackend struct{}

// NewBuiltinBackend constructs the deterministic fallback backend.
func NewBuiltinBackend() *BuiltinBackend {
	return &BuiltinBackend{}
}

// Complete never errors and never calls out to the network. It returns the
// last user message verbatim (trimmed of surrounding whitespace), with no
// notice added, or an empty text when there is no user message.
func (b *BuiltinBackend) Complete(_ context.Context, messages []Message) (*Completion, error) {
	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			lastUser = messages[i].Content
			break
		}
	}
	lastUser = strings.TrimSpace(lastUser)

	return &Completion{Text: lastUser}, nil
}
