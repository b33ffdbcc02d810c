package database

import (
	"context"
	"io"
	"log"
	"log/slog"
	"testing"

	"github.com/kgraph/corekg/helper"
	"github.com/stretchr/testify/require"
)

var dbPort int

func TestMain(m *testing.M) {
	teardown, port, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}
	dbPort = port

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("error tearing down postgres container: %v", err)
		}
	}

	if code != 0 {
		log.Fatalf("database tests failed with code %d", code)
	}
}

// initDB starts each test from a fresh set of stored functions against the
// shared container, mirroring the teacher's per-test initDB(t) harness.
func initDB(t *testing.T) *helper.Database {
	t.Helper()
	helper.SetTestDatabaseConfigEnvs(t, dbPort)

	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := helper.NewDatabase("corekg_test", dbConfig, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}
