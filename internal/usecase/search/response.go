package search

import (
	"github.com/kailas-cloud/esmem/internal/domain/aggregation"
	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
)

// constant placeholder; the engine does not score relevance
const score = 1.0

// Response is one page of search results.
type Response struct {
	Took         int64
	Shards       int
	Total        int
	Hits         []domdoc.Document
	Aggregations []aggregation.Result
	Suggest      map[string]any
	ScrollID     string
}

// Body renders the response as a search API payload.
func (r Response) Body() map[string]any {
	hits := make([]any, len(r.Hits))
	for i, d := range r.Hits {
		hits[i] = map[string]any{
			"_index":   d.Index(),
			"_type":    d.Type(),
			"_id":      d.ID(),
			"_version": d.Version(),
			"_score":   score,
			"_source":  d.Source(),
		}
	}

	var maxScore any
	if len(r.Hits) > 0 {
		maxScore = score
	}

	body := map[string]any{
		"took":      r.Took,
		"timed_out": false,
		"_shards":   shardsBody(r.Shards),
		"hits": map[string]any{
			"total":     map[string]any{"value": r.Total, "relation": "eq"},
			"max_score": maxScore,
			"hits":      hits,
		},
	}
	if r.Aggregations != nil {
		aggs := make(map[string]any, len(r.Aggregations))
		for _, a := range r.Aggregations {
			aggs[a.Definition.Name] = a.Body()
		}
		body["aggregations"] = aggs
	}
	if r.Suggest != nil {
		body["suggest"] = r.Suggest
	}
	if r.ScrollID != "" {
		body["_scroll_id"] = r.ScrollID
	}
	return body
}

// CountResponse is the outcome of a count call.
type CountResponse struct {
	Count  int
	Shards int
}

// Body renders the response as a count API payload.
func (r CountResponse) Body() map[string]any {
	return map[string]any{
		"count":   r.Count,
		"_shards": shardsBody(r.Shards),
	}
}

// one shard per index, always healthy
func shardsBody(n int) map[string]any {
	return map[string]any{
		"total":      n,
		"successful": n,
		"skipped":    0,
		"failed":     0,
	}
}
