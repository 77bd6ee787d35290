// Package memory implements the document store on process memory.
package memory

import (
	"errors"

	"github.com/kailas-cloud/esmem/internal/db"
	"github.com/kailas-cloud/esmem/internal/domain/document"
)

var _ db.Store = (*Store)(nil)

// Store keeps insertion-ordered documents per index.
// It is not safe for concurrent use; the engine holds the lock.
type Store struct {
	names   []string
	indices map[string]*index
}

type index struct {
	docs []document.Document
}

// New creates an empty store.
func New() *Store {
	return &Store{indices: make(map[string]*index)}
}

// CreateIndex registers an empty index unless it already exists.
func (s *Store) CreateIndex(name string) error {
	if name == "" {
		return &db.Error{Op: db.OpCreateIndex, Err: errors.New("empty index name")}
	}
	if _, ok := s.indices[name]; ok {
		return nil
	}
	s.indices[name] = &index{}
	s.names = append(s.names, name)
	return nil
}

// DeleteIndex drops the index and all of its documents.
func (s *Store) DeleteIndex(name string) bool {
	if _, ok := s.indices[name]; !ok {
		return false
	}
	delete(s.indices, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return true
}

// IndexExists reports whether the index is present.
func (s *Store) IndexExists(name string) bool {
	_, ok := s.indices[name]
	return ok
}

// Indices returns a copy of the index names in creation order.
func (s *Store) Indices() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Append adds doc at the end of the index.
func (s *Store) Append(name string, doc document.Document) error {
	idx, ok := s.indices[name]
	if !ok {
		return &db.Error{Op: db.OpAppend, Index: name, Err: db.ErrIndexNotFound}
	}
	idx.docs = append(idx.docs, doc)
	return nil
}

// Replace swaps the stored document with the same id for doc, keeping its position.
func (s *Store) Replace(name string, doc document.Document) error {
	idx, ok := s.indices[name]
	if !ok {
		return &db.Error{Op: db.OpReplace, Index: name, Err: db.ErrIndexNotFound}
	}
	i := idx.position(doc.ID(), "")
	if i < 0 {
		return &db.Error{Op: db.OpReplace, Index: name, Err: db.ErrDocumentNotFound}
	}
	idx.docs[i] = doc
	return nil
}

// Remove deletes the first document matching id and type.
func (s *Store) Remove(name, id, docType string) bool {
	idx, ok := s.indices[name]
	if !ok {
		return false
	}
	i := idx.position(id, docType)
	if i < 0 {
		return false
	}
	idx.docs = append(idx.docs[:i], idx.docs[i+1:]...)
	return true
}

// Find returns the first document matching id and type.
func (s *Store) Find(name, id, docType string) (document.Document, bool) {
	idx, ok := s.indices[name]
	if !ok {
		return document.Document{}, false
	}
	i := idx.position(id, docType)
	if i < 0 {
		return document.Document{}, false
	}
	return idx.docs[i], true
}

// Iterate returns the documents of the given indices, or of every index when names is nil.
func (s *Store) Iterate(names []string, docType string) []document.Document {
	if names == nil {
		names = s.names
	}
	var out []document.Document
	for _, name := range names {
		idx, ok := s.indices[name]
		if !ok {
			continue
		}
		for _, d := range idx.docs {
			if d.MatchesType(docType) {
				out = append(out, d)
			}
		}
	}
	return out
}

// Count returns how many documents Iterate would yield.
func (s *Store) Count(names []string, docType string) int {
	if names == nil {
		names = s.names
	}
	n := 0
	for _, name := range names {
		idx, ok := s.indices[name]
		if !ok {
			continue
		}
		for _, d := range idx.docs {
			if d.MatchesType(docType) {
				n++
			}
		}
	}
	return n
}

func (idx *index) position(id, docType string) int {
	for i, d := range idx.docs {
		if d.ID() == id && d.MatchesType(docType) {
			return i
		}
	}
	return -1
}
