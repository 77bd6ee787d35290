package document

import (
	"fmt"
	"time"
)

// DefaultType is the mapping type recorded when a caller supplies none.
const DefaultType = "_doc"

// AllTypes matches documents of any mapping type.
const AllTypes = "_all"

// Document is a versioned record stored in an index (immutable value object).
// Identity is (index, id); the mapping type is carried as metadata only.
type Document struct {
	index   string
	docType string
	id      string
	version int
	source  map[string]any
}

// New validates and creates a Document at version 1.
func New(index, docType, id string, source map[string]any) (Document, error) {
	if index == "" {
		return Document{}, fmt.Errorf("index is required")
	}
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if docType == "" {
		docType = DefaultType
	}
	return Document{
		index:   index,
		docType: docType,
		id:      id,
		version: 1,
		source:  CloneMap(source),
	}, nil
}

// Index returns the owning index name.
func (d Document) Index() string { return d.index }

// Type returns the mapping type.
func (d Document) Type() string { return d.docType }

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Version returns the document version (starts at 1).
func (d Document) Version() int { return d.version }

// Source returns the live source map. Callers outside the store must not mutate it.
func (d Document) Source() map[string]any { return d.source }

// MatchesType reports whether the document passes a type filter.
// An empty filter or "_all" matches every type.
func (d Document) MatchesType(filter string) bool {
	return filter == "" || filter == AllTypes || filter == d.docType
}

// WithVersion returns a copy carrying the given version.
func (d Document) WithVersion(v int) Document {
	return Document{index: d.index, docType: d.docType, id: d.id, version: v, source: d.source}
}

// WithSource returns a copy carrying a cloned source.
func (d Document) WithSource(source map[string]any) Document {
	return Document{index: d.index, docType: d.docType, id: d.id, version: d.version, source: CloneMap(source)}
}

// Clone returns a copy whose source shares nothing with the original.
func (d Document) Clone() Document {
	return d.WithSource(d.source)
}

// CloneMap deep-copies a JSON-like map.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		return append([]string(nil), t...)
	case time.Time:
		return t
	default:
		return v
	}
}
