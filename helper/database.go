package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DatabaseConfiguration holds the connection parameters for the relational
// store of truth, read from the RELATIONAL_* environment variables (§6).
type DatabaseConfiguration struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string

	PoolSize     int
	PoolOverflow int
}

// NewDatabaseConfiguration reads RELATIONAL_STORE_URL's constituent
// variables from the environment. RELATIONAL_STORE_URL itself, if set, is
// expected to be a bare host:port pair (the rest is composed from the other
// RELATIONAL_* variables); no defaults are applied for required fields, per
// the configuration surface in §6.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	host, port, err := splitHostPort(os.Getenv("RELATIONAL_STORE_URL"))
	if err != nil {
		return nil, NewError("parse RELATIONAL_STORE_URL", err)
	}

	poolSize := envInt("CONNECTION_POOL_SIZE", 5)
	poolOverflow := envInt("CONNECTION_POOL_OVERFLOW", 10)

	return &DatabaseConfiguration{
		Host:         host,
		Port:         port,
		Database:     os.Getenv("RELATIONAL_DATABASE"),
		Username:     os.Getenv("RELATIONAL_USER"),
		Password:     os.Getenv("RELATIONAL_PASSWORD"),
		Schema:       envDefault("RELATIONAL_SCHEMA", "public"),
		SSLMode:      envDefault("RELATIONAL_SSLMODE", "disable"),
		PoolSize:     poolSize,
		PoolOverflow: poolOverflow,
	}, nil
}

// SetTestDatabaseConfigEnvs sets the RELATIONAL_* environment variables to
// point at a local container on the given port, restoring prior values via
// t.Cleanup. Mirrors the teacher's test harness wiring for testcontainers.
func SetTestDatabaseConfigEnvs(t *testing.T, port int) {
	t.Helper()
	vars := map[string]string{
		"RELATIONAL_STORE_URL": fmt.Sprintf("localhost:%d", port),
		"RELATIONAL_DATABASE":  "database",
		"RELATIONAL_USER":      "user",
		"RELATIONAL_PASSWORD":  "password",
		"RELATIONAL_SCHEMA":    "public",
		"RELATIONAL_SSLMODE":   "disable",
	}
	for k, v := range vars {
		prev, had := os.LookupEnv(k)
		os.Setenv(k, v)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

// MustStartPostgresContainer starts a disposable Postgres+pgvector
// container for integration tests and example programs, returning a
// teardown func and the host port it is listening on.
func MustStartPostgresContainer() (func(context.Context) error, int, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, 0, NewError("start postgres container", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, 0, NewError("resolve postgres container port", err)
	}

	teardown := func(ctx context.Context) error {
		return container.Terminate(ctx)
	}

	return teardown, mappedPort.Int(), nil
}

// Database wraps a pooled *sql.DB connection and its logger, mirroring the
// teacher's helper.Database usage throughout database/.
type Database struct {
	Instance *sql.DB
	Name     string
	Logger   *slog.Logger
}

// NewDatabase opens a pooled connection to the relational store described
// by config and returns a *Database, applying the bounded connection pool
// of §5 (CONNECTION_POOL_SIZE + CONNECTION_POOL_OVERFLOW).
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		config.Host, config.Port, config.Database, config.Username, config.Password,
		config.SSLMode, config.Schema,
	)

	instance, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, NewError("open database connection", err)
	}

	poolSize := config.PoolSize
	if poolSize <= 0 {
		poolSize = 5
	}
	overflow := config.PoolOverflow
	if overflow < 0 {
		overflow = 0
	}
	instance.SetMaxOpenConns(poolSize + overflow)
	instance.SetMaxIdleConns(poolSize)

	if err := instance.Ping(); err != nil {
		return nil, NewError("ping database connection", err)
	}

	return &Database{Instance: instance, Name: name, Logger: logger}, nil
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
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

func splitHostPort(hostport string) (string, int, error) {
	if hostport == "" {
		return "", 0, nil
	}
	host, portStr, err := splitLast(hostport, ':')
	if err != nil {
		return "", 0, fmt.Errorf("expected host:port, got %q", hostport)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", hostport, err)
	}
	return host, port, nil
}

func splitLast(s string, sep byte) (string, string, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("separator %q not found", sep)
}
