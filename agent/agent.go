// Package agent implements the retrieval agent of spec.md §4.5: given a
// natural-language query, classify its intent, dispatch the relational,
// graph, and vector tools it needs, merge their ranked results by weight,
// and synthesize a cited prose answer.
package agent

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/database"
	"github.com/kgraph/corekg/embedder"
	"github.com/kgraph/corekg/graphmirror"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/llm"
	"github.com/kgraph/corekg/model"
)

// DefaultToolTimeout bounds a single tool invocation.
const DefaultToolTimeout = 10 * time.Second

// DefaultAnswerTimeout bounds the whole Answer call, tools and synthesis
// included.
const DefaultAnswerTimeout = 30 * time.Second

// Agent answers natural-language queries against one project's knowledge
// graph by orchestrating the three retrieval tools and a synthesis call.
type Agent struct {
	chain        *llm.Chain
	schemas      *database.SchemasDBHandler
	nodes        *database.NodesDBHandler
	edges        *database.EdgesDBHandler
	chunks       *database.ChunksDBHandler
	mirror       graphmirror.GraphStore
	embedder     embedder.Embedder
	toolTimeout  time.Duration
	answerTimeout time.Duration
	similarityTopK int
}

// NewAgent constructs an Agent wired to the relational/graph/vector stores
// and the LLM chain used for both intent classification and synthesis.
func NewAgent(
	chain *llm.Chain,
	schemas *database.SchemasDBHandler,
	nodes *database.NodesDBHandler,
	edges *database.EdgesDBHandler,
	chunks *database.ChunksDBHandler,
	mirror graphmirror.GraphStore,
	emb embedder.Embedder,
) *Agent {
	return &Agent{
		chain:          chain,
		schemas:        schemas,
		nodes:          nodes,
		edges:          edges,
		chunks:         chunks,
		mirror:         mirror,
		embedder:       emb,
		toolTimeout:    DefaultToolTimeout,
		answerTimeout:  DefaultAnswerTimeout,
		similarityTopK: 10,
	}
}

// WithTimeouts overrides the per-tool and overall answer timeouts.
func (a *Agent) WithTimeouts(tool, answer time.Duration) *Agent {
	a.toolTimeout = tool
	a.answerTimeout = answer
	return a
}

// WithSimilarityTopK overrides the vector tool's result count.
func (a *Agent) WithSimilarityTopK(k int) *Agent {
	a.similarityTopK = k
	return a
}

// Answer classifies query's intent, dispatches the tools the plan calls
// for, merges their results, and synthesizes a cited answer — or the
// NoInformationText sentinel if every dispatched tool returned nothing.
func (a *Agent) Answer(ctx context.Context, projectID uuid.UUID, query string, history []model.Turn) (*model.AnswerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.answerTimeout)
	defer cancel()

	plan, err := a.classifyIntent(ctx, query, history)
	if err != nil {
		return nil, err
	}

	nodeSchemas, err := a.schemas.ListSchemas(projectID, model.EntityTypeNode, true)
	if err != nil {
		return nil, helper.NewError("answer: list node schemas", err)
	}

	var items []model.RankedItem
	var usage []model.ToolUsage
	var reasoning []string

	for _, call := range plan.Tools {
		toolCtx, toolCancel := context.WithTimeout(ctx, a.toolTimeout)

		var results []model.RankedItem
		var toolErr error
		status := model.ToolStatusOK

		switch call.Tool {
		case model.ToolRelational:
			results, toolErr = a.runRelationalTool(toolCtx, projectID, call.Args, nodeSchemas)
		case model.ToolGraph:
			results, toolErr = a.runGraphTool(toolCtx, projectID, call.Args)
		case model.ToolVector:
			results, toolErr = a.runVectorTool(toolCtx, projectID, call.Args, query)
		default:
			status = model.ToolStatusSkipped
		}

		if toolErr != nil {
			if toolCtx.Err() != nil {
				status = model.ToolStatusTimeout
			} else {
				status = model.ToolStatusError
			}
			results = nil
		}
		toolCancel()

		usage = append(usage, model.ToolUsage{Tool: call.Tool, Status: status, Count: len(results)})
		items = append(items, results...)
		reasoning = append(reasoning, string(call.Tool)+": "+string(status))
	}

	merged := mergeResults(items, plan.MergeWeights)

	text, citations, err := a.synthesize(ctx, query, history, merged)
	if err != nil {
		return nil, err
	}

	return &model.AnswerResult{
		Text:           text,
		Citations:      citations,
		ToolsUsed:      usage,
		ReasoningTrace: reasoning,
	}, nil
}

// mergeResults combines every tool's ranked items into one list, summing
// weight * per-tool score for items multiple tools surfaced, iterating
// tools in a fixed relational -> graph -> vector order and breaking score
// ties by (created_at asc, id asc) for determinism.
func mergeResults(items []model.RankedItem, weights model.MergeWeights) []model.RankedItem {
	byID := make(map[uuid.UUID]*model.RankedItem)
	var order []uuid.UUID

	weightOf := func(tool model.ToolName) float64 {
		switch tool {
		case model.ToolRelational:
			return weights.Relational
		case model.ToolGraph:
			return weights.Graph
		case model.ToolVector:
			return weights.Vector
		default:
			return 0
		}
	}

	for _, tool := range []model.ToolName{model.ToolRelational, model.ToolGraph, model.ToolVector} {
		for _, it := range items {
			found := false
			for t := range it.ToolScores {
				if t == tool {
					found = true
					break
				}
			}
			if !found {
				continue
			}

			existing, ok := byID[it.ID]
			if !ok {
				copyItem := it
				copyItem.Score = 0
				copyItem.ToolScores = map[model.ToolName]float64{}
				byID[it.ID] = &copyItem
				order = append(order, it.ID)
				existing = byID[it.ID]
			}
			existing.ToolScores[tool] = it.ToolScores[tool]
			existing.Score += weightOf(tool) * it.ToolScores[tool]
		}
	}

	out := make([]model.RankedItem, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	return out
}
