// Package bulk parses newline-delimited bulk bodies and models per-item outcomes.
package bulk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/kailas-cloud/esmem/internal/domain"
	"github.com/kailas-cloud/esmem/internal/domain/document"
)

// Op is a bulk action type.
type Op string

// Bulk action types.
const (
	OpIndex  Op = "index"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Action is one validated action/payload pair.
type Action struct {
	Op     Op
	Index  string
	Type   string
	ID     string
	Source map[string]any
}

// Parse decodes an NDJSON bulk body. Any malformed action fails the whole body.
func Parse(r io.Reader, defaultIndex, defaultType string) ([]Action, error) {
	dec := json.NewDecoder(r)
	var lines []map[string]any
	for {
		var line map[string]any
		if err := dec.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, domain.NewParsing(fmt.Sprintf("malformed bulk line %d: %v", len(lines)+1, err))
		}
		lines = append(lines, line)
	}
	return ParseLines(lines, defaultIndex, defaultType)
}

// ParseLines validates already-decoded alternating action and payload lines.
func ParseLines(lines []map[string]any, defaultIndex, defaultType string) ([]Action, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidation("1: no requests added;")
	}

	var actions []Action
	for i := 0; i < len(lines); i++ {
		op, meta, err := actionLine(lines[i], i+1)
		if err != nil {
			return nil, err
		}

		a := Action{
			Op:    op,
			Index: stringOr(meta, "_index", defaultIndex),
			Type:  stringOr(meta, "_type", defaultType),
			ID:    stringOr(meta, "_id", ""),
		}
		if a.Type == "" {
			a.Type = document.DefaultType
		}
		if a.Index == "" {
			return nil, domain.NewValidation(fmt.Sprintf("%d: index is missing;", i+1))
		}
		if a.ID == "" && (op == OpUpdate || op == OpDelete) {
			return nil, domain.NewValidation(fmt.Sprintf("%d: id is missing;", i+1))
		}

		if op != OpDelete {
			i++
			if i >= len(lines) {
				return nil, domain.NewValidation(fmt.Sprintf("%d: %s action is missing its source;", i, op))
			}
			a.Source = lines[i]
			if op == OpUpdate {
				if doc, ok := a.Source["doc"].(map[string]any); ok {
					a.Source = doc
				}
			}
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func actionLine(line map[string]any, n int) (Op, map[string]any, error) {
	if len(line) != 1 {
		return "", nil, domain.NewParsing(fmt.Sprintf("line %d: expected a single action, got %d keys", n, len(line)))
	}
	for k, v := range line {
		op := Op(k)
		switch op {
		case OpIndex, OpCreate, OpUpdate, OpDelete:
		default:
			return "", nil, domain.NewParsing(fmt.Sprintf("line %d: unknown action [%s]", n, k))
		}
		meta, ok := v.(map[string]any)
		if !ok && v != nil {
			return "", nil, domain.NewParsing(fmt.Sprintf("line %d: action metadata must be an object", n))
		}
		return op, meta, nil
	}
	return "", nil, nil
}

func stringOr(m map[string]any, key, fallback string) string {
	switch v := m[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fallback
}
