// Package aggregation groups matched documents into composite term buckets
// and computes per-bucket metrics.
package aggregation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/esmem/internal/domain"
	"github.com/kailas-cloud/esmem/internal/domain/query"
)

// Kind names the aggregation families the engine recognises.
type Kind string

// Aggregation kinds.
const (
	Composite Kind = "composite"
	// Other is any aggregation the engine does not compute; it yields no buckets.
	Other Kind = "other"
)

// MetricCardinality is the only supported per-bucket metric.
const MetricCardinality = "cardinality"

// Source is one named term source of a composite key.
type Source struct {
	Name  string
	Field string
}

// Metric is a named per-bucket metric over a field.
type Metric struct {
	Name  string
	Type  string
	Field string
}

// Definition is a parsed top-level aggregation.
type Definition struct {
	Name    string
	Kind    Kind
	Sources []Source
	Metrics []Metric
}

// Bucket is one composite group.
type Bucket struct {
	Key      []any
	DocCount int
	Metrics  map[string]int
}

// Result holds the buckets of one aggregation, sorted ascending by key.
type Result struct {
	Definition Definition
	Buckets    []Bucket
}

// Parse reads the "aggs"/"aggregations" object of a request body.
func Parse(aggs map[string]any) ([]Definition, error) {
	names := make([]string, 0, len(aggs))
	for name := range aggs {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(aggs))
	for _, name := range names {
		body, ok := aggs[name].(map[string]any)
		if !ok {
			return nil, domain.NewParsing(fmt.Sprintf("aggregation [%s] must be an object", name))
		}
		def, err := parseDefinition(name, body)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseDefinition(name string, body map[string]any) (Definition, error) {
	def := Definition{Name: name, Kind: Other}

	if comp, ok := body["composite"].(map[string]any); ok {
		sources, isTerms, err := parseSources(name, comp["sources"])
		if err != nil {
			return Definition{}, err
		}
		if isTerms {
			def.Kind = Composite
			def.Sources = sources
		}
	}

	sub, _ := body["aggs"].(map[string]any)
	if sub == nil {
		sub, _ = body["aggregations"].(map[string]any)
	}
	metrics, err := parseMetrics(sub)
	if err != nil {
		return Definition{}, err
	}
	def.Metrics = metrics
	return def, nil
}

// parseSources returns isTerms=false when any source is not a terms source.
func parseSources(agg string, raw any) ([]Source, bool, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, false, domain.NewParsing(fmt.Sprintf("composite aggregation [%s] requires [sources]", agg))
	}
	sources := make([]Source, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok || len(entry) != 1 {
			return nil, false, domain.NewParsing(fmt.Sprintf("composite aggregation [%s] has a malformed source", agg))
		}
		for srcName, spec := range entry {
			specMap, _ := spec.(map[string]any)
			terms, ok := specMap["terms"].(map[string]any)
			if !ok {
				return nil, false, nil
			}
			field, _ := terms["field"].(string)
			if field == "" {
				return nil, false, domain.NewParsing(fmt.Sprintf("source [%s] requires [field]", srcName))
			}
			sources = append(sources, Source{Name: srcName, Field: field})
		}
	}
	return sources, true, nil
}

func parseMetrics(sub map[string]any) ([]Metric, error) {
	names := make([]string, 0, len(sub))
	for n := range sub {
		names = append(names, n)
	}
	sort.Strings(names)

	metrics := make([]Metric, 0, len(sub))
	for _, name := range names {
		body, ok := sub[name].(map[string]any)
		if !ok || len(body) != 1 {
			return nil, domain.NewParsing(fmt.Sprintf("metric [%s] must name exactly one type", name))
		}
		for typ, spec := range body {
			if typ != MetricCardinality {
				return nil, domain.NewUnsupported(fmt.Sprintf("unsupported metric type [%s]", typ))
			}
			specMap, _ := spec.(map[string]any)
			field, _ := specMap["field"].(string)
			if field == "" {
				return nil, domain.NewParsing(fmt.Sprintf("metric [%s] requires [field]", name))
			}
			metrics = append(metrics, Metric{Name: name, Type: typ, Field: field})
		}
	}
	return metrics, nil
}

type group struct {
	key  []any
	docs []map[string]any
}

// Compute buckets the sources by the definition's composite key.
// Non-composite definitions produce an empty bucket list.
func Compute(def Definition, sources []map[string]any) Result {
	res := Result{Definition: def, Buckets: []Bucket{}}
	if def.Kind != Composite {
		return res
	}

	groups := make(map[string]*group)
	for _, src := range sources {
		for _, key := range keysOf(def.Sources, src) {
			id := canonical(key)
			g, ok := groups[id]
			if !ok {
				g = &group{key: key}
				groups[id] = g
			}
			g.docs = append(g.docs, src)
		}
	}

	for _, g := range groups {
		b := Bucket{Key: g.key, DocCount: len(g.docs)}
		if len(def.Metrics) > 0 {
			b.Metrics = make(map[string]int, len(def.Metrics))
			for _, m := range def.Metrics {
				b.Metrics[m.Name] = cardinality(g.docs, m.Field)
			}
		}
		res.Buckets = append(res.Buckets, b)
	}

	sort.Slice(res.Buckets, func(i, j int) bool {
		return compareTuples(res.Buckets[i].Key, res.Buckets[j].Key) < 0
	})
	return res
}

// keysOf expands a source into every composite key it contributes to.
// A document missing any source field contributes none.
func keysOf(srcs []Source, doc map[string]any) [][]any {
	keys := [][]any{{}}
	for _, s := range srcs {
		v, ok := query.Lookup(doc, s.Field)
		if !ok || v == nil {
			return nil
		}
		values := []any{v}
		if list, isList := v.([]any); isList {
			values = list
		}
		if len(values) == 0 {
			return nil
		}
		next := make([][]any, 0, len(keys)*len(values))
		for _, k := range keys {
			for _, val := range values {
				nk := make([]any, len(k), len(k)+1)
				copy(nk, k)
				next = append(next, append(nk, val))
			}
		}
		keys = next
	}
	return keys
}

func cardinality(docs []map[string]any, field string) int {
	seen := make(map[string]struct{})
	for _, d := range docs {
		v, ok := query.Lookup(d, field)
		if !ok || v == nil {
			continue
		}
		if list, isList := v.([]any); isList {
			for _, e := range list {
				seen[canonical([]any{e})] = struct{}{}
			}
			continue
		}
		seen[canonical([]any{v})] = struct{}{}
	}
	return len(seen)
}

// Body renders the result in response form.
func (r Result) Body() map[string]any {
	buckets := make([]any, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		key := make(map[string]any, len(b.Key))
		for i, s := range r.Definition.Sources {
			key[s.Name] = b.Key[i]
		}
		entry := map[string]any{"key": key, "doc_count": b.DocCount}
		for name, v := range b.Metrics {
			entry[name] = map[string]any{"value": v}
		}
		buckets = append(buckets, entry)
	}
	body := map[string]any{"buckets": buckets}
	if n := len(buckets); n > 0 {
		body["after_key"] = buckets[n-1].(map[string]any)["key"]
	}
	return body
}

func canonical(key []any) string {
	parts := make([]string, len(key))
	for i, v := range key {
		parts[i] = fmt.Sprintf("%d:%v", rank(v), normalize(v))
	}
	return strings.Join(parts, "\x00")
}
