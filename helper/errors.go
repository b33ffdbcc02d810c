package helper

import "fmt"

// ErrorKind is the closed set of named error categories a CoreError may
// carry, tested by callers with IsKind instead of string matching.
type ErrorKind string

const (
	// Validation
	ErrSchemaValidation ErrorKind = "SchemaValidationError"
	ErrSemverFormat     ErrorKind = "SemverFormatError"
	ErrDuplicateName    ErrorKind = "DuplicateNameError"
	ErrAttributeType    ErrorKind = "AttributeTypeError"

	// Reference
	ErrProjectNotFound ErrorKind = "ProjectNotFoundError"
	ErrSchemaNotFound  ErrorKind = "SchemaNotFoundError"
	ErrNodeNotFound    ErrorKind = "NodeNotFoundError"
	ErrSchemaInUse     ErrorKind = "SchemaInUseError"

	// External provider
	ErrLLMUnavailable     ErrorKind = "LLMUnavailableError"
	ErrNERUnavailable     ErrorKind = "NERUnavailableError"
	ErrEmbeddingBackend   ErrorKind = "EmbeddingBackendError"
	ErrGraphMirror        ErrorKind = "GraphMirrorError"

	// Storage
	ErrConflict          ErrorKind = "ConflictError"
	ErrStorageUnavailable ErrorKind = "StorageUnavailableError"
	ErrStorageTimeout    ErrorKind = "StorageTimeoutError"

	// Quota/time
	ErrRateLimited      ErrorKind = "RateLimitedError"
	ErrTimeoutExceeded  ErrorKind = "TimeoutExceededError"

	// Operational
	ErrDocumentUnreadable ErrorKind = "DocumentUnreadableError"
	ErrCancelled          ErrorKind = "CancelledError"

	// ErrUnclassified is used by NewError, which has no kind parameter,
	// to wrap an arbitrary error with just an operation label.
	ErrUnclassified ErrorKind = ""
)

// CoreError is the error type returned by every exported operation in this
// module. Op names the failing operation ("create_node", "similarity_search");
// Kind is one of the named kinds above (or ErrUnclassified); Err is the
// underlying cause.
type CoreError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *CoreError) Error() string {
	if e.Kind != ErrUnclassified {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

// NewError wraps err with the failing operation name, mirroring the
// teacher's helper.NewError(op, err) call sites throughout database/ and
// grapher.go. It carries no ErrorKind; use NewKindError where a caller
// needs to test with IsKind against a specific taxonomy entry.
func NewError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CoreError{Op: op, Err: err}
}

// NewKindError wraps err with both an operation name and a taxonomy kind
// (§7's error taxonomy), so callers can test the kind with IsKind, or use
// errors.As to recover the *CoreError.
func NewKindError(op string, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &CoreError{Op: op, Kind: kind, Err: err}
}

// IsKind reports whether err is a *CoreError (at any wrap depth) carrying
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if ce, ok := err.(*CoreError); ok {
			if ce.Kind == kind {
				return true
			}
			err = ce.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
