// Package config loads the core's runtime configuration from environment
// variables (optionally backed by a local .env file), applying the
// defaults spec.md §6 lists. Fatal-at-startup conditions are returned as
// errors, never logged-and-exited, so the caller (a cmd/ binary) decides
// policy.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the fully resolved runtime configuration for a Runtime.
type Config struct {
	RelationalStoreURL string
	RelationalUser     string
	RelationalPassword string
	RelationalDatabase string
	RelationalSchema   string

	GraphStoreURL  string
	GraphUser      string
	GraphPassword  string

	LLMPrimaryURL   string
	LLMPrimaryKey   string
	LLMPrimaryModel string

	LLMFallbackURL string
	LLMFallbackKey string

	EmbeddingModelID  string
	EmbeddingDimension int

	NERModelID string

	ChunkSize    int
	ChunkOverlap int

	NERConfidenceThreshold float64

	SimilarityTopK int

	ConnectionPoolSize     int
	ConnectionPoolOverflow int

	StageATimeout  time.Duration
	ToolTimeout    time.Duration
	AnswerTimeout  time.Duration

	GraphMirrorDrainInterval time.Duration
}

// Load reads the environment (after attempting to load a local .env file,
// silently ignoring its absence, as the teacher's test harness does) and
// applies the defaults of spec.md §6. RELATIONAL_STORE_URL and
// GRAPH_STORE_URL have no defaults; their absence is a fatal-at-startup
// configuration error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RelationalStoreURL: os.Getenv("RELATIONAL_STORE_URL"),
		RelationalUser:     os.Getenv("RELATIONAL_USER"),
		RelationalPassword: os.Getenv("RELATIONAL_PASSWORD"),
		RelationalDatabase: os.Getenv("RELATIONAL_DATABASE"),
		RelationalSchema:   envDefault("RELATIONAL_SCHEMA", "public"),

		GraphStoreURL: os.Getenv("GRAPH_STORE_URL"),
		GraphUser:     os.Getenv("GRAPH_USER"),
		GraphPassword: os.Getenv("GRAPH_PASSWORD"),

		LLMPrimaryURL:   os.Getenv("LLM_PRIMARY_URL"),
		LLMPrimaryKey:   os.Getenv("LLM_PRIMARY_KEY"),
		LLMPrimaryModel: os.Getenv("LLM_PRIMARY_MODEL"),

		LLMFallbackURL: os.Getenv("LLM_FALLBACK_URL"),
		LLMFallbackKey: os.Getenv("LLM_FALLBACK_KEY"),

		EmbeddingModelID:   envDefault("EMBEDDING_MODEL_ID", "all-MiniLM-L6-v2"),
		EmbeddingDimension: envInt("EMBEDDING_DIMENSION", 384),

		NERModelID: envDefault("NER_MODEL_ID", "dslim/bert-base-NER"),

		ChunkSize:    envInt("CHUNK_SIZE", 500),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 50),

		NERConfidenceThreshold: envFloat("NER_CONFIDENCE_THRESHOLD", 0.7),

		SimilarityTopK: envInt("SIMILARITY_TOP_K", 10),

		ConnectionPoolSize:     envInt("CONNECTION_POOL_SIZE", 5),
		ConnectionPoolOverflow: envInt("CONNECTION_POOL_OVERFLOW", 10),

		StageATimeout: time.Duration(envInt("STAGE_A_TIMEOUT_SECONDS", 60)) * time.Second,
		ToolTimeout:   time.Duration(envInt("TOOL_TIMEOUT_SECONDS", 10)) * time.Second,
		AnswerTimeout: time.Duration(envInt("ANSWER_TIMEOUT_SECONDS", 30)) * time.Second,

		GraphMirrorDrainInterval: time.Duration(envInt("GRAPH_MIRROR_DRAIN_INTERVAL_SECONDS", 30)) * time.Second,
	}

	if cfg.RelationalStoreURL == "" {
		return nil, fmt.Errorf("config: RELATIONAL_STORE_URL is required")
	}
	if cfg.GraphStoreURL == "" {
		return nil, fmt.Errorf("config: GRAPH_STORE_URL is required")
	}
	if cfg.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("config: EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingDimension)
	}

	return cfg, nil
}

// CheckEmbeddingDimension is the fatal-at-startup guard of §7: a mismatch
// between the configured embedding dimension and a pre-existing project's
// stored dimension is a hard configuration error, never silently
// tolerated.
func (c *Config) CheckEmbeddingDimension(existingDim int) error {
	if existingDim > 0 && existingDim != c.EmbeddingDimension {
		return fmt.Errorf(
			"config: EMBEDDING_DIMENSION=%d does not match existing project data dimension %d",
			c.EmbeddingDimension, existingDim,
		)
	}
	return nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
