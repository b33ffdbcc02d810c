package agent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
)

func TestKeywordIntentHeuristicCount(t *testing.T) {
	plan := keywordIntentHeuristic("how many people work at Acme?")
	assert.Contains(t, plan.Tools, model.ToolCall{Tool: model.ToolRelational})
	assert.Greater(t, plan.MergeWeights.Relational, 0.0)
}

func TestKeywordIntentHeuristicGraph(t *testing.T) {
	plan := keywordIntentHeuristic("who is connected to Jane Doe?")
	assert.Contains(t, plan.Tools, model.ToolCall{Tool: model.ToolGraph})
}

func TestKeywordIntentHeuristicDefaultsToSemantic(t *testing.T) {
	plan := keywordIntentHeuristic("tell me about this project")
	found := false
	for _, tc := range plan.Tools {
		if tc.Tool == model.ToolVector {
			found = true
		}
	}
	assert.True(t, found)
}

func TestKeywordIntentHeuristicNeverEmpty(t *testing.T) {
	plan := keywordIntentHeuristic("")
	assert.NotEmpty(t, plan.Tools)
}

func TestParseQueryPlanExtractsFromProse(t *testing.T) {
	text := `Here is the plan: {"intents": ["SEMANTIC"], "tools": ["vector"], "merge_weights": {"relational": 0, "graph": 0, "vector": 1}}`
	plan, ok := parseQueryPlan(text)
	assert.True(t, ok)
	assert.Equal(t, []model.ToolCall{{Tool: model.ToolVector}}, plan.Tools)
	assert.Equal(t, 1.0, plan.MergeWeights.Vector)
}

func TestParseQueryPlanRejectsEmptyTools(t *testing.T) {
	_, ok := parseQueryPlan(`{"intents": [], "tools": [], "merge_weights": {}}`)
	assert.False(t, ok)
}

func TestScoreFiltersExactMatch(t *testing.T) {
	data := model.StructuredData{"name": {Type: model.DataTypeString, String: "Acme"}}
	score, matched := scoreFilters(data, []Filter{{Attribute: "name", Op: FilterEquals, Value: "Acme"}})
	assert.True(t, matched)
	assert.Equal(t, 1.0, score)
}

func TestScoreFiltersPartialMatch(t *testing.T) {
	data := model.StructuredData{"name": {Type: model.DataTypeString, String: "Acme Corp"}}
	score, matched := scoreFilters(data, []Filter{{Attribute: "name", Op: FilterContains, Value: "acme"}})
	assert.True(t, matched)
	assert.Equal(t, 0.5, score)
}

func TestScoreFiltersMissingAttributeFails(t *testing.T) {
	data := model.StructuredData{}
	_, matched := scoreFilters(data, []Filter{{Attribute: "name", Op: FilterEquals, Value: "Acme"}})
	assert.False(t, matched)
}

func TestScoreFiltersEmptyFilterListAlwaysMatches(t *testing.T) {
	score, matched := scoreFilters(model.StructuredData{}, nil)
	assert.True(t, matched)
	assert.Equal(t, 1.0, score)
}

func TestFirstBalancedObjectHandlesNestedBraces(t *testing.T) {
	text := `prefix {"a": {"b": 1}} suffix`
	object, ok := firstBalancedObject(text)
	assert.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, object)
}

func TestFirstBalancedObjectNoObjectFound(t *testing.T) {
	_, ok := firstBalancedObject("no json here")
	assert.False(t, ok)
}

func TestMergeResultsCombinesWeightedScores(t *testing.T) {
	id := uuid.New()
	now := time.Now()

	items := []model.RankedItem{
		{ID: id, CreatedAt: now, ToolScores: map[model.ToolName]float64{model.ToolRelational: 1.0}, Score: 1.0},
		{ID: id, CreatedAt: now, ToolScores: map[model.ToolName]float64{model.ToolVector: 0.5}, Score: 0.5},
	}
	weights := model.MergeWeights{Relational: 0.5, Graph: 0, Vector: 0.5}

	merged := mergeResults(items, weights)
	assert.Len(t, merged, 1)
	assert.InDelta(t, 0.75, merged[0].Score, 1e-9)
}

func TestMergeResultsStableTieBreak(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)
	later := time.Now()
	a := uuid.New()
	b := uuid.New()

	items := []model.RankedItem{
		{ID: a, CreatedAt: later, ToolScores: map[model.ToolName]float64{model.ToolVector: 0.5}},
		{ID: b, CreatedAt: earlier, ToolScores: map[model.ToolName]float64{model.ToolVector: 0.5}},
	}
	weights := model.MergeWeights{Vector: 1}

	merged := mergeResults(items, weights)
	assert.Equal(t, b, merged[0].ID)
	assert.Equal(t, a, merged[1].ID)
}
