package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kgraph/corekg/llm"
	"github.com/kgraph/corekg/model"
)

const intentSystemPrompt = `You classify a user's question about a knowledge graph into a tool plan.
Respond with ONLY a JSON object of this exact shape, no prose:
{"intents": ["FILTER"|"TRAVERSAL"|"SEMANTIC", ...], "tools": ["relational"|"graph"|"vector", ...], "merge_weights": {"relational": <float>, "graph": <float>, "vector": <float>}}
FILTER questions ask how many / which entities match a property (count, list, filter) -> relational tool.
TRAVERSAL questions ask about relationships, connections, or paths between entities -> graph tool.
SEMANTIC questions ask what something is, means, or is about -> vector tool.
A question may need more than one tool. Weights must sum to roughly 1.0 across the tools you selected.`

// classifyIntent resolves a QueryPlan for query, trying the LLM chain first
// and falling back to a keyword heuristic when the LLM's response doesn't
// parse or the chain is entirely unavailable. The heuristic never fails, so
// this method always returns a usable plan.
func (a *Agent) classifyIntent(ctx context.Context, query string, history []model.Turn) (*model.QueryPlan, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: intentSystemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	completion, err := a.chain.Complete(ctx, messages)
	if err == nil {
		if plan, ok := parseQueryPlan(completion.Text); ok {
			return plan, nil
		}
	}

	return keywordIntentHeuristic(query), nil
}

func parseQueryPlan(text string) (*model.QueryPlan, bool) {
	object, ok := firstBalancedObject(text)
	if !ok {
		return nil, false
	}

	var raw struct {
		Intents      []string `json:"intents"`
		Tools        []string `json:"tools"`
		MergeWeights model.MergeWeights `json:"merge_weights"`
	}
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return nil, false
	}
	if len(raw.Tools) == 0 {
		return nil, false
	}

	plan := &model.QueryPlan{MergeWeights: raw.MergeWeights}
	for _, intent := range raw.Intents {
		plan.Intents = append(plan.Intents, model.Intent(intent))
	}
	for _, tool := range raw.Tools {
		plan.Tools = append(plan.Tools, model.ToolCall{Tool: model.ToolName(tool)})
	}
	return plan, true
}

// keywordIntentHeuristic is the deterministic Tier-2 fallback: it never
// errors and always selects at least one tool. The vector tool is selected
// when a semantic keyword matches or when neither a count nor a graph
// keyword matched, mirroring model.DefaultMergeWeights' "fall back to pure
// semantic search" rule.
func keywordIntentHeuristic(query string) *model.QueryPlan {
	lower := strings.ToLower(query)

	plan := &model.QueryPlan{MergeWeights: model.DefaultMergeWeights}

	isCount := strings.Contains(lower, "how many") || strings.Contains(lower, "count") ||
		strings.Contains(lower, "list all") || strings.Contains(lower, "which ")
	isGraph := strings.Contains(lower, "connected") || strings.Contains(lower, "related") ||
		strings.Contains(lower, "relationship") || strings.Contains(lower, "who works") ||
		strings.Contains(lower, "between")
	isSemantic := strings.Contains(lower, "what") || strings.Contains(lower, "explain") ||
		strings.Contains(lower, "about") || (!isCount && !isGraph)

	weights := model.MergeWeights{}
	if isCount {
		plan.Intents = append(plan.Intents, model.IntentFilter)
		plan.Tools = append(plan.Tools, model.ToolCall{Tool: model.ToolRelational})
		weights.Relational = 1
	}
	if isGraph {
		plan.Intents = append(plan.Intents, model.IntentTraversal)
		plan.Tools = append(plan.Tools, model.ToolCall{Tool: model.ToolGraph})
		weights.Graph = 1
	}
	if isSemantic || len(plan.Tools) == 0 {
		plan.Intents = append(plan.Intents, model.IntentSemantic)
		plan.Tools = append(plan.Tools, model.ToolCall{Tool: model.ToolVector})
		weights.Vector = 1
	}

	total := weights.Relational + weights.Graph + weights.Vector
	if total > 0 {
		weights.Relational /= total
		weights.Graph /= total
		weights.Vector /= total
	} else {
		weights = model.DefaultMergeWeights
	}
	plan.MergeWeights = weights

	return plan
}
