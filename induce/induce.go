// Package induce implements the core's C3 schema inducer (Stage A):
// propose a node/edge ontology from a document's text via the three-tier
// LLM fallback chain, validate and normalize the proposal, and persist it
// in one all-or-nothing transaction.
package induce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/database"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/llm"
	"github.com/kgraph/corekg/model"
)

// DefaultSnippetCount is N in "select <= N paragraphs" of spec.md §4.3.
const DefaultSnippetCount = 5

// Inducer proposes and persists an ontology for a project from raw
// document text.
type Inducer struct {
	chain   *llm.Chain
	schemas *database.SchemasDBHandler
	snippetCount int
}

// NewInducer constructs an Inducer. chain is the three-tier fallback chain
// (primary LLM, secondary LLM, built-in); schemas persists surviving
// proposals.
func NewInducer(chain *llm.Chain, schemas *database.SchemasDBHandler) *Inducer {
	return &Inducer{chain: chain, schemas: schemas, snippetCount: DefaultSnippetCount}
}

// rawProposal is the shape the LLM is instructed to return: strict JSON
// with nodes/edges/summary, each element carrying schema_name,
// entity_type, structured_attributes, and optional notes.
type rawProposal struct {
	Nodes   []rawSchema `json:"nodes"`
	Edges   []rawSchema `json:"edges"`
	Summary string      `json:"summary"`
}

type rawSchema struct {
	SchemaName           string              `json:"schema_name"`
	EntityType           string              `json:"entity_type"`
	StructuredAttributes []rawAttribute      `json:"structured_attributes"`
	Notes                string              `json:"notes,omitempty"`
}

type rawAttribute struct {
	Name        string                       `json:"name"`
	DataType    string                       `json:"data_type"`
	Required    bool                         `json:"required"`
	Constraints *model.AttributeConstraints  `json:"constraints,omitempty"`
}

// InduceSchemas runs the induce_schemas operation of spec.md §4.3 for one
// document of a project.
func (ind *Inducer) InduceSchemas(ctx context.Context, projectID uuid.UUID, documentText string, hints map[string]interface{}) (*model.ProposalResult, error) {
	snippets := selectSnippets(documentText, ind.snippetCount)
	messages := buildPrompt(snippets, hints)

	completion, err := ind.chain.Complete(ctx, messages)
	if err != nil {
		return nil, helper.NewKindError("induce schemas", helper.ErrLLMUnavailable, err)
	}

	raw, parseErr := extractProposal(completion.Text)
	sourceTier := completion.Tier

	if parseErr != nil || (len(raw.Nodes) == 0 && len(raw.Edges) == 0) {
		raw = builtinProposal()
		sourceTier = llm.TierBuiltin
	}

	schemas, rejected := validateProposal(raw)

	if err := ind.persist(projectID, schemas); err != nil {
		return nil, err
	}

	return &model.ProposalResult{
		Schemas:    schemas,
		Rejected:   rejected,
		Summary:    raw.Summary,
		SourceTier: int(sourceTier),
	}, nil
}

// persist writes every surviving schema in one all-or-nothing pass. Since
// database.SchemasDBHandler has no multi-row transaction primitive of its
// own, persist calls CreateSchema per schema and rolls back by deleting
// everything written so far on the first failure — the teacher's handlers
// operate one stored function per call, so an explicit compensating
// rollback is the idiomatic way to get transaction-like semantics across
// several handler calls.
func (ind *Inducer) persist(projectID uuid.UUID, schemas []model.Schema) error {
	var written []uuid.UUID

	for i := range schemas {
		schemas[i].ProjectID = projectID
		schemas[i].VersionString = "1.0.0"
		schemas[i].IsActive = true

		created, err := ind.schemas.CreateSchema(&schemas[i])
		if err != nil {
			for _, id := range written {
				_ = ind.schemas.DeleteSchema(id)
			}
			return helper.NewError("induce schemas persist", err)
		}
		schemas[i] = *created
		written = append(written, created.ID)
	}

	return nil
}

// selectSnippets picks up to n paragraphs from text using the first-N
// policy spec.md §4.3 names as the default.
func selectSnippets(text string, n int) []string {
	paras := strings.Split(text, "\n\n")
	var out []string
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
		if len(out) >= n {
			break
		}
	}
	return out
}

const systemPrompt = `You propose a knowledge graph ontology from document text.
Respond with strict JSON only, no prose, shaped exactly as:
{"nodes": [{"schema_name": "...", "entity_type": "NODE", "structured_attributes": [{"name": "...", "data_type": "string|integer|float|boolean|datetime", "required": true|false}], "notes": "..."}],
 "edges": [{"schema_name": "...", "entity_type": "EDGE", "structured_attributes": [...], "notes": "..."}],
 "summary": "..."}`

func buildPrompt(snippets []string, hints map[string]interface{}) []llm.Message {
	var b strings.Builder
	for i, s := range snippets {
		fmt.Fprintf(&b, "Snippet %d:\n%s\n\n", i+1, s)
	}
	if len(hints) > 0 {
		hintsJSON, _ := json.Marshal(hints)
		fmt.Fprintf(&b, "Hints: %s\n", string(hintsJSON))
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}

// extractProposal searches text for the first balanced JSON object,
// ignoring leading/trailing prose, per spec.md §4.3's parsing-robustness
// requirement.
func extractProposal(text string) (rawProposal, error) {
	obj, ok := firstBalancedObject(text)
	if !ok {
		return rawProposal{}, fmt.Errorf("no balanced JSON object found in response")
	}

	var raw rawProposal
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return rawProposal{}, err
	}
	return raw, nil
}

// firstBalancedObject returns the substring of text spanning the first
// '{' through its matching '}', tracking string literals and escapes so
// braces inside quoted strings don't unbalance the count.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
