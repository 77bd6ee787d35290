// Package scroll keeps single-use paging cursors for scrolled searches.
package scroll

import (
	"github.com/kailas-cloud/esmem/internal/domain"
	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
)

// Cursor is the paging state needed to re-run a search from the next offset.
type Cursor struct {
	ID      string
	Indices []string
	DocType string
	Body    map[string]any
	From    int
	Size    int
}

// Manager is the cursor table. It is not safe for concurrent use; the engine holds the lock.
type Manager struct {
	ids     IDGenerator
	cursors map[string]Cursor
}

// New creates an empty cursor table.
func New(ids IDGenerator) *Manager {
	return &Manager{ids: ids, cursors: make(map[string]Cursor)}
}

// Open stores c under a fresh id and returns the id.
func (m *Manager) Open(c Cursor) string {
	c.ID = m.ids.NewScrollID()
	c.Indices = append([]string(nil), c.Indices...)
	c.Body = domdoc.CloneMap(c.Body)
	m.cursors[c.ID] = c
	return c.ID
}

// Take consumes the cursor. A second Take with the same id fails.
func (m *Manager) Take(id string) (Cursor, error) {
	c, ok := m.cursors[id]
	if !ok {
		return Cursor{}, domain.NewScrollNotFound(id)
	}
	delete(m.cursors, id)
	return c, nil
}

// Clear drops the given cursors and returns how many were open.
func (m *Manager) Clear(ids ...string) int {
	n := 0
	for _, id := range ids {
		if _, ok := m.cursors[id]; ok {
			delete(m.cursors, id)
			n++
		}
	}
	return n
}

// ClearAll drops every cursor.
func (m *Manager) ClearAll() int {
	n := len(m.cursors)
	clear(m.cursors)
	return n
}

// Len returns the number of open cursors.
func (m *Manager) Len() int { return len(m.cursors) }
