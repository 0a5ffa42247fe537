package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrUnknownBlockType = errors.New("unknown block type")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrInvalidProps     = errors.New("invalid props")
)

// ValidationErrors maps a property key to a message. An empty map means valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Valid() bool { return len(v) == 0 }

// Keys returns the failing property keys in sorted order.
func (v ValidationErrors) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InvalidBlocksError is returned when a document fails field validation at
// a publish boundary. Blocks maps block ID to its field errors.
type InvalidBlocksError struct {
	Blocks map[string]ValidationErrors
}

func (e *InvalidBlocksError) Error() string {
	ids := make([]string, 0, len(e.Blocks))
	for id := range e.Blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("%d block(s) failed validation: %s", len(ids), strings.Join(ids, ", "))
}

// StructuralError lists the structural problems of a document that must not
// be handed to an editor.
type StructuralError struct {
	Problems []string
}

func (e *StructuralError) Error() string {
	return "document structure invalid: " + strings.Join(e.Problems, "; ")
}

// ImportError means the transport form could not be decoded into a document.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import: %s: %v", e.Reason, e.Err)
	}
	return "import: " + e.Reason
}

func (e *ImportError) Unwrap() error { return e.Err }

// OperationError reports caller misuse of a document operation.
type OperationError struct {
	Op  string
	Err error
	Msg string
}

func (e *OperationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Msg)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// OpError builds an OperationError.
func OpError(op string, err error, format string, args ...any) error {
	return &OperationError{Op: op, Err: err, Msg: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a failure of the save/publish/load collaborator.
type PersistenceError struct {
	Op     string
	PageID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s page %s: %v", e.Op, e.PageID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
