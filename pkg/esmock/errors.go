package esmock

import "github.com/kailas-cloud/esmem/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrIndexNotFound    = domain.ErrIndexNotFound
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrScrollNotFound   = domain.ErrScrollNotFound
	ErrValidation       = domain.ErrValidation
	ErrVersionConflict  = domain.ErrVersionConflict
	ErrUnsupported      = domain.ErrUnsupported
	ErrServerFailure    = domain.ErrServerFailure
)

// StatusError carries the HTTP status and Elasticsearch error type of a failed call.
// Use errors.As() to inspect it.
type StatusError = domain.StatusError

// StatusOf returns the status code carried by err, or 500 for plain errors.
func StatusOf(err error) int { return domain.StatusOf(err) }
