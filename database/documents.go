package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	loadSql "github.com/kgraph/corekg/sql"
)

// DocumentsDBHandler handles document-related database operations.
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &DocumentsDBHandler{db: db}

	if err := loadSql.LoadDocumentsSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	if _, err := h.db.Instance.Exec(`SELECT init_documents();`); err != nil {
		return nil, helper.NewError("create table", err)
	}

	h.db.Logger.Info("Initialized DocumentsDBHandler")

	return h, nil
}

func scanDocument(row interface{ Scan(dest ...interface{}) error }) (*model.Document, error) {
	d := &model.Document{}
	err := row.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.SizeBytes, &d.PageCount, &d.Status, &d.UploadedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CreateDocument creates a document in state UPLOADED.
func (h *DocumentsDBHandler) CreateDocument(projectID uuid.UUID, filename string, sizeBytes int64, pageCount int) (*model.Document, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3, $4)`,
		projectID, filename, sizeBytes, pageCount,
	)

	d, err := scanDocument(row)
	if err != nil {
		return nil, helper.NewKindError("create document", helper.ErrStorageUnavailable, err)
	}
	return d, nil
}

// SelectDocument fetches a document by ID.
func (h *DocumentsDBHandler) SelectDocument(id uuid.UUID) (*model.Document, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_document($1)`, id)

	d, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewKindError("select document", helper.ErrProjectNotFound, err)
		}
		return nil, helper.NewError("select document", err)
	}
	return d, nil
}

// SelectDocumentsByStatus lists every document of a project in a given
// status, ordered by uploaded_at ascending. Pass an empty status to select
// all documents regardless of status.
func (h *DocumentsDBHandler) SelectDocumentsByStatus(projectID uuid.UUID, status model.DocumentStatus) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_documents_by_project_and_status($1, $2)`,
		projectID, string(status),
	)
	if err != nil {
		return nil, helper.NewError("select documents by status", err)
	}
	defer rows.Close()

	var out []*model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, helper.NewError("scan document", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SearchDocuments matches documents in a project whose filename contains
// query, supplementing spec.md's create_document-only surface.
func (h *DocumentsDBHandler) SearchDocuments(projectID uuid.UUID, query string) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM search_documents($1, $2)`, projectID, query)
	if err != nil {
		return nil, helper.NewError("search documents", err)
	}
	defer rows.Close()

	var out []*model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, helper.NewError("scan document", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetDocumentStatus updates a document's status. Idempotent: setting the
// same status twice is a no-op success.
func (h *DocumentsDBHandler) SetDocumentStatus(id uuid.UUID, status model.DocumentStatus) (*model.Document, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM update_document_status($1, $2)`, id, string(status))

	d, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewKindError("set document status", helper.ErrProjectNotFound, err)
		}
		return nil, helper.NewError("set document status", err)
	}
	return d, nil
}
