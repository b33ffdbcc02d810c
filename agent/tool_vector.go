package agent

import (
	"context"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/database"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
)

// VectorArgs is the vector tool's typed argument shape: an optional
// restriction to specific documents and an override for the default
// similarity result count.
type VectorArgs struct {
	DocumentIDs []uuid.UUID
	TopK        int
}

// runVectorTool embeds queryText and returns the top-K chunks by cosine
// similarity, scored directly by their similarity value.
func (a *Agent) runVectorTool(ctx context.Context, projectID uuid.UUID, rawArgs interface{}, queryText string) ([]model.RankedItem, error) {
	args, _ := rawArgs.(VectorArgs)

	topK := args.TopK
	if topK <= 0 {
		topK = a.similarityTopK
	}

	vectors, err := a.embedder.EmbedBatch(ctx, []string{queryText})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	var filter *database.SimilarityFilter
	if len(args.DocumentIDs) > 0 {
		filter = &database.SimilarityFilter{DocumentIDs: args.DocumentIDs}
	}

	scored, err := a.chunks.SimilaritySearch(projectID, vectors[0], topK, filter)
	if err != nil {
		return nil, helper.NewError("vector tool", err)
	}

	out := make([]model.RankedItem, 0, len(scored))
	for _, sc := range scored {
		out = append(out, model.RankedItem{
			ID:         sc.Chunk.ID,
			Kind:       "chunk",
			CreatedAt:  sc.Chunk.CreatedAt,
			ToolScores: map[model.ToolName]float64{model.ToolVector: sc.Score},
			Score:      sc.Score,
			Payload:    sc.Chunk,
		})
	}

	return out, nil
}
