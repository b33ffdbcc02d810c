// Package embedder provides the core's C2 embedding component: a batched,
// L2-normalized text-to-vector backend, grounded on the teacher's
// DefaultEmbedder but generalized from a one-string-at-a-time EmbedFunc to
// the batch contract spec.md §4.2 requires.
package embedder

import (
	"context"
	"fmt"
	"math"

	"github.com/knights-analytics/hugot"
	"github.com/kgraph/corekg/helper"
)

// Embedder turns text into fixed-dimension, unit-normalized vectors so
// cosine similarity equals dot product.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// HugotEmbedder is the default Embedder, backed by a local ONNX sentence-
// transformer model via hugot.
type HugotEmbedder struct {
	session  *hugot.Session
	pipeline *hugot.FeatureExtractionPipeline
	dim      int
}

// NewHugotEmbedder downloads (if needed) and loads modelID, returning an
// Embedder that produces dimension-sized vectors.
func NewHugotEmbedder(modelID string, dimension int) (*HugotEmbedder, error) {
	modelPath, err := helper.PrepareModel(modelID, "onnx/model.onnx")
	if err != nil {
		return nil, helper.NewKindError("create embedder", helper.ErrEmbeddingBackend, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewKindError("create embedder", helper.ErrEmbeddingBackend,
			fmt.Errorf("failed to create hugot session: %w", err))
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "corekg-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, helper.NewKindError("create embedder", helper.ErrEmbeddingBackend,
			fmt.Errorf("failed to create embedding pipeline: %w", err))
	}

	return &HugotEmbedder{session: session, pipeline: pipeline, dim: dimension}, nil
}

// Dimension reports the fixed vector dimension D this embedder produces.
func (e *HugotEmbedder) Dimension() int {
	return e.dim
}

// EmbedBatch embeds every text in order, returning one unit-normalized
// vector per input, or failing entirely — never partially — with
// EmbeddingBackendError.
func (e *HugotEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, helper.NewKindError("embed batch", helper.ErrCancelled, err)
	}

	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, helper.NewKindError("embed batch", helper.ErrEmbeddingBackend, err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, helper.NewKindError("embed batch", helper.ErrEmbeddingBackend,
			fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(result.Embeddings), len(texts)))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, v := range result.Embeddings {
		if len(v) != e.dim {
			return nil, helper.NewKindError("embed batch", helper.ErrEmbeddingBackend,
				fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), e.dim))
		}
		out[i] = normalize(v)
	}

	return out, nil
}

// Close releases the underlying hugot session.
func (e *HugotEmbedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}

// normalize L2-normalizes v so cosine similarity reduces to a dot product,
// a deliberate generalization since the teacher's embedder does not
// normalize its output.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
