package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	loadSql "github.com/kgraph/corekg/sql"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// ChunksDBHandler handles chunk-related database operations.
type ChunksDBHandler struct {
	db *helper.Database
}

// SimilarityFilter expresses equality constraints for similarity_search:
// restricting the candidate set to a document_id set. Metadata-equality
// filtering is not supported, since chunks carry no metadata column of
// their own.
type SimilarityFilter struct {
	DocumentIDs []uuid.UUID
}

// ScoredChunk pairs a Chunk with its cosine-similarity score.
type ScoredChunk struct {
	Chunk model.Chunk
	Score float64
}

// NewChunksDBHandler creates a new chunks database handler. embeddingDim
// fixes the dimension of the embedding column.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &ChunksDBHandler{db: db}

	if err := loadSql.LoadChunksSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	if _, err := h.db.Instance.Exec(`SELECT init_chunks($1);`, embeddingDim); err != nil {
		return nil, helper.NewError("create table", err)
	}

	h.db.Logger.Info("Initialized ChunksDBHandler")

	return h, nil
}

// CountChunksByDocument returns how many chunks already exist for a
// document, used by the constructor's idempotence check before step 3.
func (h *ChunksDBHandler) CountChunksByDocument(documentID uuid.UUID) (int, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT * FROM count_chunks_by_document($1)`, documentID).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count chunks by document", err)
	}
	return int(count), nil
}

// CreateChunksBulk inserts every chunk of one document in a single
// transaction, failing atomically on any constraint violation.
func (h *ChunksDBHandler) CreateChunksBulk(projectID, documentID uuid.UUID, texts []string, embeddings [][]float32) (int, error) {
	if len(texts) != len(embeddings) {
		return 0, helper.NewError("create chunks bulk", fmt.Errorf("texts/embeddings length mismatch: %d vs %d", len(texts), len(embeddings)))
	}

	tx, err := h.db.Instance.Begin()
	if err != nil {
		return 0, helper.NewKindError("create chunks bulk", helper.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	inserted := 0
	for i, text := range texts {
		vec := pgvector.NewVector(embeddings[i])
		_, err := tx.Exec(
			`SELECT * FROM insert_chunk($1, $2, $3, $4, $5)`,
			projectID, documentID, i, text, &vec,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, helper.NewKindError("create chunks bulk", helper.ErrConflict, err)
			}
			return 0, helper.NewKindError("create chunks bulk", helper.ErrStorageUnavailable, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, helper.NewKindError("create chunks bulk", helper.ErrStorageUnavailable, err)
	}

	return inserted, nil
}

// SelectChunksByDocument returns a document's chunks ordered by chunk_index.
func (h *ChunksDBHandler) SelectChunksByDocument(documentID uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_chunks_by_document($1)`, documentID)
	if err != nil {
		return nil, helper.NewError("select chunks by document", err)
	}
	defer rows.Close()

	var out []*model.Chunk
	for rows.Next() {
		c := &model.Chunk{}
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.DocumentID, &c.ChunkIndex, &c.Text, &c.Embedding, &c.CreatedAt); err != nil {
			return nil, helper.NewError("scan chunk", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SimilaritySearch computes cosine similarity over embeddings, restricted
// to filter.DocumentIDs when non-empty, and returns the top_k ranked
// results with stable tie-break ordering (score desc, then created_at asc,
// then id asc — expressed server-side as distance asc, created_at asc, id
// asc).
func (h *ChunksDBHandler) SimilaritySearch(projectID uuid.UUID, queryVector []float32, topK int, filter *SimilarityFilter) ([]ScoredChunk, error) {
	qv := pgvector.NewVector(queryVector)

	var docIDsParam interface{}
	if filter != nil && len(filter.DocumentIDs) > 0 {
		docIDsParam = pq.Array(filter.DocumentIDs)
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3, $4)`,
		projectID, &qv, topK, docIDsParam,
	)
	if err != nil {
		return nil, helper.NewKindError("similarity search", helper.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []ScoredChunk
	for rows.Next() {
		var sc ScoredChunk
		if err := rows.Scan(
			&sc.Chunk.ID, &sc.Chunk.ProjectID, &sc.Chunk.DocumentID, &sc.Chunk.ChunkIndex,
			&sc.Chunk.Text, &sc.Chunk.Embedding, &sc.Chunk.CreatedAt, &sc.Score,
		); err != nil {
			return nil, helper.NewError("scan scored chunk", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// DeleteChunk removes a chunk.
func (h *ChunksDBHandler) DeleteChunk(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT delete_chunk($1)`, id)
	if err != nil {
		return helper.NewKindError("delete chunk", helper.ErrStorageUnavailable, err)
	}
	return nil
}

// ChangeIndexType switches the chunks.embedding vector index between HNSW
// and IVFFlat, carried over unchanged from the teacher as an operationally
// necessary knob the distilled spec is silent on.
//
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *ChunksDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_chunks_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	h.db.Logger.Info("Dropped existing vector index")

	var createIndexSQL string
	switch indexType {
	case "hnsw":
		m, efConstruction := 16, 64
		if v, ok := params["m"].(int); ok {
			m = v
		}
		if v, ok := params["ef_construction"].(int); ok {
			efConstruction = v
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)
	case "ivfflat":
		lists := 100
		if v, ok := params["lists"].(int); ok {
			lists = v
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)
	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	if _, err := h.db.Instance.ExecContext(ctx, createIndexSQL); err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index with params: %v", indexType, params))

	return nil
}
