package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/esmem/internal/domain"
	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
)

// Service handles single-document writes and reads under versioning rules.
// Identity is (index, id): type filters apply to reads and deletes, never to write conflicts.
type Service struct {
	store Store
	ids   IDGenerator
}

// New creates a document service.
func New(store Store, ids IDGenerator) *Service {
	return &Service{store: store, ids: ids}
}

// Index writes source under id, generating one when id is empty.
// An existing document with the same id is replaced at version+1 and moved to the end of the index.
// Returns true if the document was created, false if it overwrote an existing one.
func (s *Service) Index(
	_ context.Context, index, docType, id string, source map[string]any,
) (domdoc.Document, bool, error) {
	if err := s.store.CreateIndex(index); err != nil {
		return domdoc.Document{}, false, fmt.Errorf("create index: %w", err)
	}
	if id == "" {
		id = s.ids.NewID()
	}

	version := 1
	if existing, ok := s.store.Find(index, id, ""); ok {
		version = existing.Version() + 1
		s.store.Remove(index, id, "")
	}

	doc, err := domdoc.New(index, docType, id, source)
	if err != nil {
		return domdoc.Document{}, false, domain.NewValidation(err.Error())
	}
	doc = doc.WithVersion(version)
	if err := s.store.Append(index, doc); err != nil {
		return domdoc.Document{}, false, fmt.Errorf("append document: %w", err)
	}
	return doc.Clone(), version == 1, nil
}

// Create writes source only if no document with id exists.
func (s *Service) Create(
	_ context.Context, index, docType, id string, source map[string]any,
) (domdoc.Document, error) {
	if err := s.store.CreateIndex(index); err != nil {
		return domdoc.Document{}, fmt.Errorf("create index: %w", err)
	}
	if id == "" {
		id = s.ids.NewID()
	}
	if existing, ok := s.store.Find(index, id, ""); ok {
		return domdoc.Document{}, domain.NewVersionConflict(index, id, existing.Version())
	}

	doc, err := domdoc.New(index, docType, id, source)
	if err != nil {
		return domdoc.Document{}, domain.NewValidation(err.Error())
	}
	if err := s.store.Append(index, doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("append document: %w", err)
	}
	return doc.Clone(), nil
}

// Update replaces the source of an existing document in place and bumps its version.
func (s *Service) Update(
	_ context.Context, index, id string, source map[string]any,
) (domdoc.Document, error) {
	existing, ok := s.store.Find(index, id, "")
	if !ok {
		return domdoc.Document{}, domain.NewDocumentMissing(index, id)
	}

	doc := existing.WithSource(source).WithVersion(existing.Version() + 1)
	if err := s.store.Replace(index, doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("replace document: %w", err)
	}
	return doc.Clone(), nil
}

// Get returns a copy of the document.
func (s *Service) Get(_ context.Context, index, id, docType string) (domdoc.Document, error) {
	if !s.store.IndexExists(index) {
		return domdoc.Document{}, domain.NewIndexNotFound(index)
	}
	doc, ok := s.store.Find(index, id, docType)
	if !ok {
		return domdoc.Document{}, domain.NewDocumentNotFound(index, id)
	}
	return doc.Clone(), nil
}

// Exists reports whether Get would find the document.
func (s *Service) Exists(_ context.Context, index, id, docType string) bool {
	_, ok := s.store.Find(index, id, docType)
	return ok
}

// Delete removes the document and returns what was removed.
func (s *Service) Delete(_ context.Context, index, id, docType string) (domdoc.Document, error) {
	if !s.store.IndexExists(index) {
		return domdoc.Document{}, domain.NewIndexNotFound(index)
	}
	doc, ok := s.store.Find(index, id, docType)
	if !ok {
		return domdoc.Document{}, domain.NewDocumentNotFound(index, id)
	}
	s.store.Remove(index, id, docType)
	return doc, nil
}
