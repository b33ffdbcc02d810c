// Package corekg provides a unified Runtime wiring every stage of the
// knowledge-graph core together: C1 persistence, C2 model backends, C3
// schema induction, Stage B construction, the native graph mirror, and the
// C5 retrieval agent. Mirrors the teacher's grapher.go Grapher/NewGrapher
// shape, generalized from a single flat handler set to the full pipeline.
package corekg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/agent"
	"github.com/kgraph/corekg/config"
	"github.com/kgraph/corekg/construct"
	"github.com/kgraph/corekg/database"
	"github.com/kgraph/corekg/embedder"
	"github.com/kgraph/corekg/graphmirror"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/induce"
	"github.com/kgraph/corekg/llm"
	"github.com/kgraph/corekg/ner"
	"github.com/kgraph/corekg/ratelimit"
	loadSql "github.com/kgraph/corekg/sql"
)

// Runtime provides a unified interface to every database handler and
// external-model backend the core depends on, plus the three higher-level
// stages built on top of them (schema induction, construction, retrieval).
type Runtime struct {
	DB        *helper.Database
	Projects  *database.ProjectsDBHandler
	Documents *database.DocumentsDBHandler
	Schemas   *database.SchemasDBHandler
	Nodes     *database.NodesDBHandler
	Edges     *database.EdgesDBHandler
	Chunks    *database.ChunksDBHandler

	Embedder embedder.Embedder
	NER      ner.NER
	LLMChain *llm.Chain
	Mirror   graphmirror.GraphStore
	Limits   *ratelimit.Endpoints

	Inducer     *induce.Inducer
	Constructor *construct.Constructor
	Agent       *agent.Agent

	log *slog.Logger
}

// NewRuntime initializes every handler and backend from cfg, in dependency
// order (schemas before nodes, nodes before edges, documents before
// chunks), and wires the three higher-level stages on top.
// textProvider supplies the raw document text Stage B needs (the
// relational store itself never retains document bytes, per the teacher's
// "Content field used for processing but not stored" convention).
func NewRuntime(cfg *config.Config, textProvider construct.TextProvider) (*Runtime, error) {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, helper.NewError("resolve database configuration", err)
	}

	db, err := helper.NewDatabase("corekg", dbConfig, logger)
	if err != nil {
		return nil, helper.NewError("open database", err)
	}
	if err := loadSql.Init(db.Instance); err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	projects, err := database.NewProjectsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create projects handler", err)
	}
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}
	schemas, err := database.NewSchemasDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create schemas handler", err)
	}
	nodes, err := database.NewNodesDBHandler(db, schemas, cfg.EmbeddingDimension, false)
	if err != nil {
		return nil, helper.NewError("create nodes handler", err)
	}
	edges, err := database.NewEdgesDBHandler(db, schemas, nodes, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}
	chunks, err := database.NewChunksDBHandler(db, cfg.EmbeddingDimension, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	emb, err := embedder.NewHugotEmbedder(cfg.EmbeddingModelID, cfg.EmbeddingDimension)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	nerBackend, err := ner.NewHugotNER(cfg.NERModelID, cfg.NERConfidenceThreshold)
	if err != nil {
		return nil, helper.NewError("create ner backend", err)
	}

	var primary llm.Backend
	if cfg.LLMPrimaryURL != "" {
		primary = llm.NewOpenAIBackend(cfg.LLMPrimaryURL, cfg.LLMPrimaryKey, cfg.LLMPrimaryModel)
	}
	var fallback llm.Backend
	if cfg.LLMFallbackURL != "" {
		fallback = llm.NewOpenAIBackend(cfg.LLMFallbackURL, cfg.LLMFallbackKey, cfg.LLMPrimaryModel)
	}
	chain := llm.NewChain(primary, cfg.StageATimeout, fallback, cfg.StageATimeout, llm.NewBuiltinBackend())

	mirror, err := graphmirror.NewNeo4jStore(cfg.GraphStoreURL, cfg.GraphUser, cfg.GraphPassword, nodes, edges)
	if err != nil {
		return nil, helper.NewError("create graph mirror", err)
	}

	limits := ratelimit.NewEndpoints(4, 4, 4, 2)

	inducer := induce.NewInducer(chain, schemas)

	constructor := construct.NewConstructor(
		documents, schemas, nodes, edges, chunks, mirror,
		textProvider, emb, nerBackend, cfg.ChunkSize, cfg.ChunkOverlap,
	)

	retrievalAgent := agent.NewAgent(chain, schemas, nodes, edges, chunks, mirror, emb).
		WithTimeouts(cfg.ToolTimeout, cfg.AnswerTimeout).
		WithSimilarityTopK(cfg.SimilarityTopK)

	logger.Info("Initialized corekg runtime", slog.Int("embedding_dimension", cfg.EmbeddingDimension))

	return &Runtime{
		DB:        db,
		Projects:  projects,
		Documents: documents,
		Schemas:   schemas,
		Nodes:     nodes,
		Edges:     edges,
		Chunks:    chunks,

		Embedder: emb,
		NER:      nerBackend,
		LLMChain: chain,
		Mirror:   mirror,
		Limits:   limits,

		Inducer:     inducer,
		Constructor: constructor,
		Agent:       retrievalAgent,

		log: logger,
	}, nil
}

// StartGraphMirrorDrain launches the background drain loop (§6) for
// projectID until ctx is cancelled. Callers typically start one per active
// project; the goroutine exits on ctx.Done.
func (r *Runtime) StartGraphMirrorDrain(ctx context.Context, projectID uuid.UUID, interval time.Duration) {
	go graphmirror.StartDrainLoop(ctx, r.Mirror, projectID, interval)
}

// Close releases every resource the Runtime holds: the embedder/NER hugot
// sessions, the graph mirror driver, and the relational connection pool.
func (r *Runtime) Close() error {
	var firstErr error

	if closer, ok := r.Embedder.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close embedder: %w", err)
		}
	}
	if closer, ok := r.NER.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close ner: %w", err)
		}
	}
	if r.Mirror != nil {
		if err := r.Mirror.Close(context.Background()); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close graph mirror: %w", err)
		}
	}
	if r.DB != nil && r.DB.Instance != nil {
		if err := r.DB.Instance.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}

	return firstErr
}
