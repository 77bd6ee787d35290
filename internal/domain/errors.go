package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals a missing index or document.
	ErrNotFound = errors.New("not found")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = fmt.Errorf("index %w", ErrNotFound)
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
	// ErrScrollNotFound signals an unknown or already consumed scroll cursor.
	ErrScrollNotFound = fmt.Errorf("scroll cursor %w", ErrNotFound)
	// ErrValidation signals a malformed request.
	ErrValidation = errors.New("validation failed")
	// ErrVersionConflict signals a create against an existing document.
	ErrVersionConflict = errors.New("version conflict")
	// ErrUnsupported signals a query clause or metric the engine cannot evaluate.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrServerFailure signals a simulated server-side failure.
	ErrServerFailure = errors.New("internal server error")
	// ErrUnauthorized signals a REST request without valid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Elasticsearch error types reported in responses.
const (
	TypeIndexNotFound         = "index_not_found_exception"
	TypeDocumentMissing       = "document_missing_exception"
	TypeNotFound              = "not_found"
	TypeVersionConflict       = "version_conflict_engine_exception"
	TypeValidation            = "action_request_validation_exception"
	TypeSearchContextMissing  = "search_context_missing_exception"
	TypeParsing               = "parsing_exception"
	TypeIllegalArgument       = "illegal_argument_exception"
	TypeInternalServerError   = "internal_server_error"
	TypeSecurity              = "security_exception"
	ReasonInternalServerError = "Internal Server Error"
)

// StatusError is an engine error with the status code and error type a real
// cluster would report for the same condition.
type StatusError struct {
	Status int
	Type   string
	Reason string
	Index  string
	ID     string
	cause  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Type, e.Reason)
}

func (e *StatusError) Unwrap() error { return e.cause }

// Body renders the error the way it appears in responses and bulk items.
func (e *StatusError) Body() map[string]any {
	body := map[string]any{
		"type":   e.Type,
		"reason": e.Reason,
	}
	if e.Index != "" {
		body["index"] = e.Index
	}
	return body
}

// NewIndexNotFound creates a 404 for a missing index.
func NewIndexNotFound(index string) error {
	return &StatusError{
		Status: http.StatusNotFound,
		Type:   TypeIndexNotFound,
		Reason: "no such index [" + index + "]",
		Index:  index,
		cause:  ErrIndexNotFound,
	}
}

// NewDocumentNotFound creates a 404 for a missing document.
func NewDocumentNotFound(index, id string) error {
	return &StatusError{
		Status: http.StatusNotFound,
		Type:   TypeNotFound,
		Reason: "document [" + id + "] not found",
		Index:  index,
		ID:     id,
		cause:  ErrDocumentNotFound,
	}
}

// NewDocumentMissing creates a 404 for an update against a missing document.
func NewDocumentMissing(index, id string) error {
	return &StatusError{
		Status: http.StatusNotFound,
		Type:   TypeDocumentMissing,
		Reason: "[" + id + "]: document missing",
		Index:  index,
		ID:     id,
		cause:  ErrDocumentNotFound,
	}
}

// NewVersionConflict creates a 409 for a create against an existing document.
func NewVersionConflict(index, id string, currentVersion int) error {
	return &StatusError{
		Status: http.StatusConflict,
		Type:   TypeVersionConflict,
		Reason: fmt.Sprintf("[%s]: version conflict, document already exists (current version [%d])", id, currentVersion),
		Index:  index,
		ID:     id,
		cause:  ErrVersionConflict,
	}
}

// NewValidation creates a 400 for a malformed request.
func NewValidation(reason string) error {
	return &StatusError{
		Status: http.StatusBadRequest,
		Type:   TypeValidation,
		Reason: "Validation Failed: " + reason,
		cause:  ErrValidation,
	}
}

// NewParsing creates a 400 for a request body that cannot be read.
func NewParsing(reason string) error {
	return &StatusError{
		Status: http.StatusBadRequest,
		Type:   TypeParsing,
		Reason: reason,
		cause:  ErrValidation,
	}
}

// NewUnsupported creates a 400 for a query clause or metric the engine lacks.
func NewUnsupported(reason string) error {
	return &StatusError{
		Status: http.StatusBadRequest,
		Type:   TypeIllegalArgument,
		Reason: reason,
		cause:  ErrUnsupported,
	}
}

// NewScrollNotFound creates a 404 for an unknown or consumed scroll id.
func NewScrollNotFound(scrollID string) error {
	return &StatusError{
		Status: http.StatusNotFound,
		Type:   TypeSearchContextMissing,
		Reason: "No search context found for id [" + scrollID + "]",
		cause:  ErrScrollNotFound,
	}
}

// NewServerFailure creates the 500 returned while server failure is simulated.
func NewServerFailure() error {
	return &StatusError{
		Status: http.StatusInternalServerError,
		Type:   TypeInternalServerError,
		Reason: ReasonInternalServerError,
		cause:  ErrServerFailure,
	}
}

// NewUnauthorized creates a 401 for a REST request without valid credentials.
func NewUnauthorized(reason string) error {
	return &StatusError{
		Status: http.StatusUnauthorized,
		Type:   TypeSecurity,
		Reason: reason,
		cause:  ErrUnauthorized,
	}
}

// StatusOf returns the status code carried by err, or 500 for plain errors.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return http.StatusInternalServerError
}
