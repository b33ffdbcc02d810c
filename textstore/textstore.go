// Package textstore provides a minimal filesystem-backed implementation of
// construct.TextProvider, standing in for the out-of-scope PDF byte
// extraction collaborator of spec.md §6: callers write extracted plain
// text to <dir>/<document_id>.txt once at upload time, and Stage B reads
// it back through FetchText.
package textstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kgraph/corekg/helper"
)

// FileStore reads document text from plain-text files named by document
// ID under a root directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. dir is created if
// absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, helper.NewError("create text store directory", err)
	}
	return &FileStore{dir: dir}, nil
}

// WriteText persists text for documentID, to be read back by FetchText.
func (s *FileStore) WriteText(documentID uuid.UUID, text string) error {
	path := s.pathFor(documentID)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return helper.NewError("write document text", err)
	}
	return nil
}

// FetchText implements construct.TextProvider. Returns
// ErrDocumentUnreadable if no text has been written for documentID.
func (s *FileStore) FetchText(ctx context.Context, documentID uuid.UUID) (string, error) {
	select {
	case <-ctx.Done():
		return "", helper.NewKindError("fetch document text", helper.ErrCancelled, ctx.Err())
	default:
	}

	data, err := os.ReadFile(s.pathFor(documentID))
	if err != nil {
		return "", helper.NewKindError("fetch document text", helper.ErrDocumentUnreadable, err)
	}
	return string(data), nil
}

func (s *FileStore) pathFor(documentID uuid.UUID) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.txt", documentID.String()))
}
