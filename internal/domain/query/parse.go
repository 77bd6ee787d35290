package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/esmem/internal/domain"
)

// clause parameters that carry no matching semantics
var ignoredParams = map[string]bool{
	"boost":                true,
	"_name":                true,
	"minimum_should_match": true,
	"adjust_pure_negative": true,
}

// rangeParams are accepted next to the bound operators and ignored.
var rangeParams = map[string]bool{
	"format":    true,
	"time_zone": true,
	"boost":     true,
}

// Parse builds a condition tree from the value of a request's "query" key.
// A nil or empty query matches everything.
func Parse(q map[string]any) (Node, error) {
	if len(q) == 0 {
		return MatchAll{}, nil
	}
	nodes, err := parseClauseMap(q)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return Bool{Clauses: nodes}, nil
}

// parseClause turns one clause-type/payload entry into a node.
func parseClause(name string, payload any) (Node, error) {
	kind, ok := ParseKind(name)
	if !ok {
		return nil, domain.NewUnsupported(fmt.Sprintf("unsupported query type [%s]", name))
	}

	switch kind {
	case KindMatchAll:
		return MatchAll{}, nil
	case KindMatch:
		pairs, err := parsePairs(name, payload, "query")
		if err != nil {
			return nil, err
		}
		return Match{Pairs: pairs}, nil
	case KindTerm:
		pairs, err := parsePairs(name, payload, "value")
		if err != nil {
			return nil, err
		}
		return Term{Pairs: pairs}, nil
	case KindTerms:
		fields, err := parseTerms(payload)
		if err != nil {
			return nil, err
		}
		return Terms{Fields: fields}, nil
	case KindRange:
		bounds, err := parseRange(payload)
		if err != nil {
			return nil, err
		}
		return Range{Fields: bounds}, nil
	case KindBool:
		clauses, err := parseClauses(name, payload)
		if err != nil {
			return nil, err
		}
		return Bool{Clauses: clauses}, nil
	case KindFilter:
		clauses, err := parseClauses(name, payload)
		if err != nil {
			return nil, err
		}
		return Filter{Clauses: clauses}, nil
	case KindMust:
		clauses, err := parseClauses(name, payload)
		if err != nil {
			return nil, err
		}
		return Must{Clauses: clauses}, nil
	case KindMustNot:
		clauses, err := parseClauses(name, payload)
		if err != nil {
			return nil, err
		}
		return MustNot{Clauses: clauses}, nil
	case KindShould:
		clauses, err := parseClauses(name, payload)
		if err != nil {
			return nil, err
		}
		return Should{Clauses: clauses}, nil
	case KindMultiMatch:
		return parseMultiMatch(payload)
	}
	return nil, domain.NewUnsupported(fmt.Sprintf("unsupported query type [%s]", name))
}

// parseClauses accepts either a clause-type->payload mapping or a list of
// single-entry clause mappings.
func parseClauses(parent string, payload any) ([]Node, error) {
	switch p := payload.(type) {
	case map[string]any:
		return parseClauseMap(p)
	case []any:
		nodes := make([]Node, 0, len(p))
		for _, item := range p {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, domain.NewParsing(fmt.Sprintf("[%s] expects clause objects, got %T", parent, item))
			}
			sub, err := parseClauseMap(m)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, sub...)
		}
		return nodes, nil
	case nil:
		return nil, nil
	default:
		return nil, domain.NewParsing(fmt.Sprintf("[%s] malformed query, got %T", parent, payload))
	}
}

func parseClauseMap(m map[string]any) ([]Node, error) {
	nodes := make([]Node, 0, len(m))
	for _, name := range sortedKeys(m) {
		if ignoredParams[name] {
			continue
		}
		n, err := parseClause(name, m[name])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// parsePairs reads {field: value} or {field: {<inner>: value}} payloads.
func parsePairs(clause string, payload any, inner string) ([]FieldValue, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, domain.NewParsing(fmt.Sprintf("[%s] query malformed, expected object", clause))
	}
	pairs := make([]FieldValue, 0, len(m))
	for _, field := range sortedKeys(m) {
		if ignoredParams[field] {
			continue
		}
		v := m[field]
		if opts, ok := v.(map[string]any); ok {
			val, ok := opts[inner]
			if !ok {
				return nil, domain.NewParsing(fmt.Sprintf("[%s] query on field [%s] is missing [%s]", clause, field, inner))
			}
			v = val
		}
		pairs = append(pairs, FieldValue{Field: field, Value: v})
	}
	return pairs, nil
}

func parseTerms(payload any) ([]FieldValues, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, domain.NewParsing("[terms] query malformed, expected object")
	}
	fields := make([]FieldValues, 0, len(m))
	for _, field := range sortedKeys(m) {
		if ignoredParams[field] {
			continue
		}
		switch v := m[field].(type) {
		case []any:
			fields = append(fields, FieldValues{Field: field, Values: v})
		case []string:
			values := make([]any, len(v))
			for i, s := range v {
				values[i] = s
			}
			fields = append(fields, FieldValues{Field: field, Values: values})
		default:
			fields = append(fields, FieldValues{Field: field, Values: []any{v}})
		}
	}
	return fields, nil
}

func parseRange(payload any) ([]Bounds, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, domain.NewParsing("[range] query malformed, expected object")
	}
	bounds := make([]Bounds, 0, len(m))
	for _, field := range sortedKeys(m) {
		ops, ok := m[field].(map[string]any)
		if !ok {
			return nil, domain.NewParsing(fmt.Sprintf("[range] query on field [%s] expects an object", field))
		}
		b := Bounds{Field: field}
		for op, v := range ops {
			switch op {
			case "gt":
				b.GT = v
			case "gte", "from":
				b.GTE = v
			case "lt":
				b.LT = v
			case "lte", "to":
				b.LTE = v
			default:
				if !rangeParams[op] {
					return nil, domain.NewParsing(fmt.Sprintf("[range] query does not support [%s]", op))
				}
			}
		}
		bounds = append(bounds, b)
	}
	return bounds, nil
}

func parseMultiMatch(payload any) (Node, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, domain.NewParsing("[multi_match] query malformed, expected object")
	}
	q, ok := m["query"]
	if !ok {
		return nil, domain.NewParsing("[multi_match] requires [query]")
	}

	var raw []string
	switch f := m["fields"].(type) {
	case []any:
		for _, v := range f {
			s, ok := v.(string)
			if !ok {
				return nil, domain.NewParsing(fmt.Sprintf("[multi_match] field names must be strings, got %T", v))
			}
			raw = append(raw, s)
		}
	case []string:
		raw = f
	case string:
		raw = []string{f}
	case nil:
	default:
		return nil, domain.NewParsing(fmt.Sprintf("[multi_match] malformed [fields], got %T", f))
	}

	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		fields = append(fields, stripBoost(f))
	}
	return MultiMatch{Query: q, Fields: fields}, nil
}

// stripBoost removes a trailing boost marker such as "title^2" or "title*".
func stripBoost(field string) string {
	if i := strings.IndexAny(field, "*^"); i >= 0 {
		return field[:i]
	}
	return field
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
