// Package sql embeds the core's stored-function definitions and loads them
// into a connected database on demand, mirroring the teacher's
// embed-then-verify-via-pg_proc pattern.
package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed projects.sql
var projectsSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed schemas.sql
var schemasSQL string

//go:embed nodes.sql
var nodesSQL string

//go:embed edges.sql
var edgesSQL string

//go:embed chunks.sql
var chunksSQL string

// ProjectsFunctions lists the stored functions LoadProjectsSql installs.
var ProjectsFunctions = []string{
	"init_projects", "insert_project", "select_project",
	"select_project_by_name", "delete_project",
}

// DocumentsFunctions lists the stored functions LoadDocumentsSql installs.
var DocumentsFunctions = []string{
	"init_documents", "insert_document", "select_document",
	"select_documents_by_project_and_status", "search_documents",
	"update_document_status", "delete_document",
}

// SchemasFunctions lists the stored functions LoadSchemasSql installs.
var SchemasFunctions = []string{
	"init_schemas", "insert_schema", "select_schema",
	"select_schema_by_name", "select_schemas", "delete_schema",
}

// NodesFunctions lists the stored functions LoadNodesSql installs.
var NodesFunctions = []string{
	"init_nodes", "insert_node", "select_node", "select_node_by_canonical_key",
	"select_nodes_pending_mirror", "select_nodes_by_project", "update_node_mirror_state",
	"update_node_unstructured_data", "delete_node",
}

// EdgesFunctions lists the stored functions LoadEdgesSql installs.
var EdgesFunctions = []string{
	"init_edges", "insert_edge", "select_edge", "select_edge_by_endpoints",
	"select_edges_pending_mirror", "select_edges_by_nodes", "select_edges_by_project",
	"update_edge_mirror_state", "delete_edge",
}

// ChunksFunctions lists the stored functions LoadChunksSql installs.
var ChunksFunctions = []string{
	"init_chunks", "insert_chunk", "select_chunk", "select_chunks_by_document",
	"count_chunks_by_document", "select_chunks_by_similarity", "delete_chunk",
}

// Init enables the Postgres extensions (pgcrypto, vector) the rest of the
// schema depends on.
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing init SQL: %w", err)
	}
	log.Println("Database extensions initialized successfully")
	return nil
}

func loadFunctions(db *sql.DB, body string, functions []string, label string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", label, err)
		}
		if exist {
			return nil
		}
	}

	if _, err := db.Exec(body); err != nil {
		return fmt.Errorf("error executing %s SQL: %w", label, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created for %s", label)
	}

	log.Printf("SQL %s functions loaded successfully", label)
	return nil
}

// LoadProjectsSql loads project-related SQL functions.
func LoadProjectsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, projectsSQL, ProjectsFunctions, "projects", force)
}

// LoadDocumentsSql loads document-related SQL functions.
func LoadDocumentsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, documentsSQL, DocumentsFunctions, "documents", force)
}

// LoadSchemasSql loads schema-related SQL functions.
func LoadSchemasSql(db *sql.DB, force bool) error {
	return loadFunctions(db, schemasSQL, SchemasFunctions, "schemas", force)
}

// LoadNodesSql loads node-related SQL functions.
func LoadNodesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, nodesSQL, NodesFunctions, "nodes", force)
}

// LoadEdgesSql loads edge-related SQL functions.
func LoadEdgesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, edgesSQL, EdgesFunctions, "edges", force)
}

// LoadChunksSql loads chunk-related SQL functions.
func LoadChunksSql(db *sql.DB, force bool) error {
	return loadFunctions(db, chunksSQL, ChunksFunctions, "chunks", force)
}

// LoadAllSql loads every entity's SQL functions in dependency order
// (projects before documents/schemas, nodes before edges, documents
// before chunks).
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadProjectsSql(db, force); err != nil {
		return err
	}
	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}
	if err := LoadSchemasSql(db, force); err != nil {
		return err
	}
	if err := LoadNodesSql(db, force); err != nil {
		return err
	}
	if err := LoadEdgesSql(db, force); err != nil {
		return err
	}
	if err := LoadChunksSql(db, force); err != nil {
		return err
	}
	return nil
}

// checkFunctions verifies that all required functions exist in the database.
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
