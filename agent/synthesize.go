package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/llm"
	"github.com/kgraph/corekg/model"
)

const synthesisSystemPrompt = `You answer questions about a knowledge graph using only the evidence
provided below. Cite each fact you use by its [N] marker. If the evidence
is insufficient to answer, say so plainly — never invent facts.`

const maxSynthesisItems = 10

// synthesize assembles merged's top items into a numbered evidence list,
// asks the LLM chain for a cited prose answer, and returns the text
// alongside the IDs of every item actually offered as evidence. Returns
// the NoInformationText sentinel, with no LLM call, when merged is empty.
func (a *Agent) synthesize(ctx context.Context, query string, history []model.Turn, merged []model.RankedItem) (string, []uuid.UUID, error) {
	if len(merged) == 0 {
		return model.NoInformationText, nil, nil
	}

	top := merged
	if len(top) > maxSynthesisItems {
		top = top[:maxSynthesisItems]
	}

	var evidence strings.Builder
	citations := make([]uuid.UUID, 0, len(top))
	for i, item := range top {
		fmt.Fprintf(&evidence, "[%d] (%s) %v\n", i+1, item.Kind, item.Payload)
		citations = append(citations, item.ID)
	}

	messages := make([]llm.Message, 0, len(history)+3)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: synthesisSystemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: "Evidence:\n" + evidence.String() + "\nQuestion: " + query})

	completion, err := a.chain.Complete(ctx, messages)
	if err != nil {
		return "", nil, err
	}

	return completion.Text, citations, nil
}
