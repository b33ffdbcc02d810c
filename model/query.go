package model

import (
	"time"

	"github.com/google/uuid"
)

// Intent is the classified category of a retrieval query.
type Intent string

const (
	IntentFilter    Intent = "FILTER"
	IntentTraversal Intent = "TRAVERSAL"
	IntentSemantic  Intent = "SEMANTIC"
)

// ToolName identifies one of the three retrieval tools.
type ToolName string

const (
	ToolRelational ToolName = "relational"
	ToolGraph      ToolName = "graph"
	ToolVector     ToolName = "vector"
)

// ToolStatus reports how a tool call within a QueryPlan resolved.
type ToolStatus string

const (
	ToolStatusOK      ToolStatus = "OK"
	ToolStatusTimeout ToolStatus = "TIMEOUT"
	ToolStatusError   ToolStatus = "ERROR"
	ToolStatusSkipped ToolStatus = "SKIPPED"
)

// ToolCall is one ordered entry of a QueryPlan's tool list.
type ToolCall struct {
	Tool ToolName    `json:"tool_name"`
	Args interface{} `json:"tool_args"`
}

// MergeWeights holds the per-tool contribution weight used when combining
// tool results into a final ranked score.
type MergeWeights struct {
	Relational float64 `json:"relational"`
	Graph      float64 `json:"graph"`
	Vector     float64 `json:"vector"`
}

// DefaultMergeWeights is the fallback-to-pure-semantic weighting used when
// intent classification confidence is low.
var DefaultMergeWeights = MergeWeights{Relational: 0, Graph: 0, Vector: 1}

// QueryPlan is the output of intent classification: an ordered list of
// tool invocations plus the weights used to merge their results.
type QueryPlan struct {
	Intents      []Intent     `json:"intents"`
	Tools        []ToolCall   `json:"tools"`
	MergeWeights MergeWeights `json:"merge_weights"`
}

// Turn is one message of conversation history folded into intent
// classification and answer synthesis prompts.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RankedItem is one entity or chunk surfaced by one or more tools, after
// score merging, before final synthesis.
type RankedItem struct {
	ID         uuid.UUID          `json:"id"`
	Kind       string             `json:"kind"`
	CreatedAt  time.Time          `json:"created_at"`
	ToolScores map[ToolName]float64 `json:"tool_scores"`
	Score      float64            `json:"score"`
	Payload    interface{}        `json:"payload"`
}

// ToolUsage records one tool's participation in answering a query, for the
// AnswerResult.ToolsUsed trace.
type ToolUsage struct {
	Tool   ToolName   `json:"tool_name"`
	Status ToolStatus `json:"status"`
	Count  int        `json:"result_count"`
}

// AnswerResult is the return value of agent.Agent.Answer.
type AnswerResult struct {
	Text           string      `json:"text"`
	Citations      []uuid.UUID `json:"citations"`
	ToolsUsed      []ToolUsage `json:"tools_used"`
	ReasoningTrace []string    `json:"reasoning_trace"`
}

// NoInformationText is the literal sentinel returned when every tool yields
// an empty result set.
const NoInformationText = "I don't have information about that in this project."
