// Package construct implements the core's C4 knowledge constructor (Stage
// B): turns approved schemas and uploaded documents into chunks, nodes,
// and edges, following the nine ordered, checkpointed steps of spec.md
// §4.4, bounded-concurrent across documents via golang.org/x/sync/errgroup.
package construct

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/chunker"
	"github.com/kgraph/corekg/database"
	"github.com/kgraph/corekg/embedder"
	"github.com/kgraph/corekg/graphmirror"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	"github.com/kgraph/corekg/ner"
	"golang.org/x/sync/errgroup"
)

// TextProvider fetches the extracted plain text for a document, abstracting
// the out-of-scope "PDF byte parsing" collaborator of spec.md §6.
type TextProvider interface {
	FetchText(ctx context.Context, documentID uuid.UUID) (string, error)
}

// DefaultConcurrency bounds how many documents of one project are
// processed at once.
const DefaultConcurrency = 4

// MentionConfidenceThreshold is the NER mention acceptance floor of
// spec.md §4.4 step 4.
const MentionConfidenceThreshold = 0.7

// Constructor runs build_knowledge for a project.
type Constructor struct {
	documents *database.DocumentsDBHandler
	schemas   *database.SchemasDBHandler
	nodes     *database.NodesDBHandler
	edges     *database.EdgesDBHandler
	chunks    *database.ChunksDBHandler
	mirror    graphmirror.GraphStore

	textProvider TextProvider
	embedder     embedder.Embedder
	ner          ner.NER

	policy RelationPolicy
	aliases LabelAliasTable

	chunkSize    int
	chunkOverlap int
	concurrency  int
}

// NewConstructor wires every C1/C2/external dependency Stage B needs.
func NewConstructor(
	documents *database.DocumentsDBHandler,
	schemas *database.SchemasDBHandler,
	nodes *database.NodesDBHandler,
	edges *database.EdgesDBHandler,
	chunks *database.ChunksDBHandler,
	mirror graphmirror.GraphStore,
	textProvider TextProvider,
	emb embedder.Embedder,
	nerBackend ner.NER,
	chunkSize, chunkOverlap int,
) *Constructor {
	return &Constructor{
		documents:    documents,
		schemas:      schemas,
		nodes:        nodes,
		edges:        edges,
		chunks:       chunks,
		mirror:       mirror,
		textProvider: textProvider,
		embedder:     emb,
		ner:          nerBackend,
		policy:       DefaultRelationPolicy(),
		aliases:      DefaultLabelAliasTable(),
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		concurrency:  DefaultConcurrency,
	}
}

// WithRelationPolicy overrides the default (source_schema, target_schema)
// -> edge_schema co-occurrence policy.
func (c *Constructor) WithRelationPolicy(p RelationPolicy) *Constructor {
	c.policy = p
	return c
}

// WithLabelAliases overrides the NER-label-to-schema-name alias table.
func (c *Constructor) WithLabelAliases(a LabelAliasTable) *Constructor {
	c.aliases = a
	return c
}

// WithConcurrency overrides DefaultConcurrency.
func (c *Constructor) WithConcurrency(n int) *Constructor {
	if n > 0 {
		c.concurrency = n
	}
	return c
}

// BuildKnowledge processes every UPLOADED document of projectID, bounded
// concurrently, and returns aggregated stats. A failure processing one
// document never aborts the others (spec.md §4.4: "NER or LLM provider
// failures do not fail the whole project").
func (c *Constructor) BuildKnowledge(ctx context.Context, projectID uuid.UUID) (*model.ConstructionStats, error) {
	docs, err := c.documents.SelectDocumentsByStatus(projectID, model.DocumentUploaded)
	if err != nil {
		return nil, helper.NewError("build knowledge", err)
	}

	nodeSchemas, err := c.schemas.ListSchemas(projectID, model.EntityTypeNode, true)
	if err != nil {
		return nil, helper.NewError("build knowledge", err)
	}

	stats := &model.ConstructionStats{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			docStats, procErr := c.processDocument(gctx, projectID, doc, nodeSchemas)

			mu.Lock()
			mergeStats(stats, docStats)
			mu.Unlock()

			if procErr != nil {
				// A single document's failure does not fail the project;
				// swallow it here and let the document remain in its
				// current (possibly UPLOADED) status for retry.
				return nil
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, helper.NewError("build knowledge", err)
	}

	return stats, nil
}

// processDocument runs the nine steps of spec.md §4.4 for one document.
func (c *Constructor) processDocument(ctx context.Context, projectID uuid.UUID, doc *model.Document, nodeSchemas []*model.Schema) (*model.ConstructionStats, error) {
	stats := &model.ConstructionStats{}

	// Step 1: read text.
	text, err := c.textProvider.FetchText(ctx, doc.ID)
	if err != nil {
		return stats, helper.NewKindError("process document", helper.ErrDocumentUnreadable, err)
	}

	// Step 2: chunk.
	texts, err := chunker.Chunk(text, c.chunkSize, c.chunkOverlap)
	if err != nil {
		return stats, helper.NewError("process document", err)
	}

	// Step 3: embed + persist chunks, idempotent on (document_id, chunk_index).
	existing, err := c.chunks.CountChunksByDocument(doc.ID)
	if err != nil {
		return stats, helper.NewError("process document", err)
	}

	var persistedChunks []*model.Chunk
	if existing == 0 && len(texts) > 0 {
		vectors, err := c.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return stats, helper.NewError("process document", err)
		}

		inserted, err := c.chunks.CreateChunksBulk(projectID, doc.ID, texts, vectors)
		if err != nil {
			return stats, helper.NewError("process document", err)
		}
		stats.ChunksCreated += inserted
		stats.EmbeddingsGenerated += len(vectors)
	}

	persistedChunks, err = c.chunks.SelectChunksByDocument(doc.ID)
	if err != nil {
		return stats, helper.NewError("process document", err)
	}

	// Steps 4-7: extract, canonicalize, upsert nodes, create edges, per chunk.
	candidates := newCanonicalIndex()

	for _, chunk := range persistedChunks {
		mentions, err := c.ner.Extract(chunk.Text)
		if err != nil {
			// NER failure fails this document only, per spec.md §4.4.
			return stats, helper.NewKindError("process document", helper.ErrNERUnavailable, err)
		}

		chunkEntities := make([]canonicalEntity, 0, len(mentions))
		for _, m := range mentions {
			if m.Confidence < MentionConfidenceThreshold {
				continue
			}

			schema := matchSchema(nodeSchemas, m.Label, c.aliases)
			if schema == nil {
				stats.EntitiesDroppedUnknownLabel++
				continue
			}

			candidate := map[string]interface{}{}
			if len(schema.RequiredAttributes()) > 0 {
				candidate[schema.RequiredAttributes()[0].Name] = m.Text
			}

			key, ok := database.CanonicalKey(schema, candidate)
			if !ok {
				key = strings.ToLower(strings.Join(strings.Fields(m.Text), " "))
			}

			entity := candidates.merge(schema.ID, schema.SchemaName, key, candidate)
			chunkEntities = append(chunkEntities, entity)
		}

		// Step 6: create-or-upsert nodes for entities seen in this chunk.
		nodeIDs := make(map[string]uuid.UUID, len(chunkEntities))
		for _, ent := range chunkEntities {
			node, created, err := c.upsertNode(projectID, ent)
			if err != nil {
				return stats, helper.NewError("process document", err)
			}
			if created {
				stats.NodesCreated++
			}
			nodeIDs[ent.key] = node.ID
		}

		// Step 7: co-occurrence edges between distinct entities in this chunk.
		edgesCreated, err := c.createCooccurrenceEdges(projectID, chunkEntities, nodeIDs)
		if err != nil {
			return stats, helper.NewError("process document", err)
		}
		stats.EdgesCreated += edgesCreated
	}

	// Step 8: graph mirror drain for this document's nodes/edges.
	if c.mirror != nil {
		if err := c.mirror.DrainProject(ctx, projectID); err != nil {
			// Mirror failures leave rows PENDING for the next drain cycle;
			// they do not block finalizing the document.
			_ = err
		}
	}

	// Step 9: finalize.
	if _, err := c.documents.SetDocumentStatus(doc.ID, model.DocumentProcessed); err != nil {
		return stats, helper.NewError("process document", err)
	}
	stats.DocumentsProcessed++

	return stats, nil
}

// upsertNode looks up an existing node by (schema_id, canonical_key) or
// creates a new one, embedding json_stable(structured_data) for its
// vector, per spec.md §4.4 step 6.
func (c *Constructor) upsertNode(projectID uuid.UUID, ent canonicalEntity) (*model.Node, bool, error) {
	existing, err := c.nodes.SelectNodeByCanonicalKey(ent.schemaID, ent.key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	vector, err := c.embedStructured(ent.structuredData)
	if err != nil {
		return nil, false, err
	}

	node, err := c.nodes.CreateNode(projectID, ent.schemaID, ent.key, ent.structuredData, ent.unstructuredData, vector, nil)
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}

// embedStructured embeds a stable JSON rendering of structured data so
// identical structured_data always yields an identical vector.
func (c *Constructor) embedStructured(structuredData map[string]interface{}) ([]float32, error) {
	stable := jsonStable(structuredData)
	vectors, err := c.embedder.EmbedBatch(context.Background(), []string{stable})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedStructured: no vector returned")
	}
	return vectors[0], nil
}

// createCooccurrenceEdges creates an edge for every pair of distinct
// canonical entities that co-occur in entities, when the policy declares
// an edge schema for their (source_schema, target_schema) pair.
// Deduplication across calls relies on the unique constraint of
// (source_node_id, schema_id, target_node_id); the database layer falls
// back to the existing row on conflict.
func (c *Constructor) createCooccurrenceEdges(projectID uuid.UUID, entities []canonicalEntity, nodeIDs map[string]uuid.UUID) (int, error) {
	created := 0

	for i := 0; i < len(entities); i++ {
		for j := 0; j < len(entities); j++ {
			if i == j {
				continue
			}
			source := entities[i]
			target := entities[j]
			if source.key == target.key && source.schemaID == target.schemaID {
				continue
			}

			edgeSchemaID, ok := c.policy.Resolve(source.schemaName, target.schemaName)
			if !ok {
				continue
			}

			sourceNodeID := nodeIDs[source.key]
			targetNodeID := nodeIDs[target.key]

			existing, err := c.edges.SelectEdgeByEndpoints(sourceNodeID, edgeSchemaID, targetNodeID)
			if err != nil {
				return created, err
			}
			if existing != nil {
				continue
			}

			_, err = c.edges.CreateEdge(projectID, edgeSchemaID, sourceNodeID, targetNodeID, map[string]interface{}{}, map[string]interface{}{}, nil)
			if err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

// mergeStats accumulates one document's stats into the project total.
// Callers serialize access with their own mutex since BuildKnowledge
// processes documents concurrently.
func mergeStats(total, partial *model.ConstructionStats) {
	total.DocumentsProcessed += partial.DocumentsProcessed
	total.ChunksCreated += partial.ChunksCreated
	total.NodesCreated += partial.NodesCreated
	total.EdgesCreated += partial.EdgesCreated
	total.EmbeddingsGenerated += partial.EmbeddingsGenerated
	total.EntitiesDroppedUnknownLabel += partial.EntitiesDroppedUnknownLabel
}
