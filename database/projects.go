package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	loadSql "github.com/kgraph/corekg/sql"
	"github.com/lib/pq"
)

// ProjectsDBHandler handles project-related database operations.
type ProjectsDBHandler struct {
	db *helper.Database
}

// NewProjectsDBHandler creates a new projects database handler, loading and
// verifying the stored functions it depends on.
func NewProjectsDBHandler(db *helper.Database, force bool) (*ProjectsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &ProjectsDBHandler{db: db}

	if err := loadSql.LoadProjectsSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load projects sql", err)
	}

	if _, err := h.db.Instance.Exec(`SELECT init_projects();`); err != nil {
		return nil, helper.NewError("create table", err)
	}

	h.db.Logger.Info("Initialized ProjectsDBHandler")

	return h, nil
}

// CreateProject creates a new project. Fails with DuplicateNameError if
// name conflicts with an existing project.
func (h *ProjectsDBHandler) CreateProject(name string, metadata model.Metadata) (*model.Project, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM insert_project($1, $2)`, name, metadata)

	p := &model.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.Metadata, &p.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, helper.NewKindError("create project", helper.ErrDuplicateName, err)
		}
		return nil, helper.NewKindError("create project", helper.ErrStorageUnavailable, err)
	}

	return p, nil
}

// SelectProject fetches a project by ID.
func (h *ProjectsDBHandler) SelectProject(id uuid.UUID) (*model.Project, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_project($1)`, id)

	p := &model.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.Metadata, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewKindError("select project", helper.ErrProjectNotFound, err)
		}
		return nil, helper.NewError("select project", err)
	}

	return p, nil
}

// DeleteProject removes the project and, via ON DELETE CASCADE, every row
// it owns.
func (h *ProjectsDBHandler) DeleteProject(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT delete_project($1)`, id)
	if err != nil {
		return helper.NewKindError("delete project", helper.ErrStorageUnavailable, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), the signal used throughout this package to translate a
// constraint failure into ConflictError/DuplicateNameError.
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
