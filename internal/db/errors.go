package db

import "errors"

// Sentinel errors for store operations.
var (
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrDocumentNotFound = errors.New("db: document not found")
)

// Op constants name store operations for error context.
const (
	OpCreateIndex = "CREATE_INDEX"
	OpDeleteIndex = "DELETE_INDEX"
	OpAppend      = "APPEND"
	OpReplace     = "REPLACE"
	OpRemove      = "REMOVE"
	OpFind        = "FIND"
	OpIterate     = "ITERATE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op    string
	Index string
	Err   error
}

func (e *Error) Error() string {
	if e.Index == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " [" + e.Index + "]: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
