package search

import (
	"fmt"
	"math"

	"github.com/spf13/cast"

	"github.com/kailas-cloud/esmem/internal/domain"
)

// DefaultPageSize is used when neither the request nor its body sets a size.
const DefaultPageSize = 10

// Request selects documents for search and count.
type Request struct {
	// Indices lists index names or wildcard patterns. Empty, "_all" and "*" select every index.
	Indices []string
	// DocType filters by mapping type; empty or "_all" matches every type.
	DocType string
	// Body is the request body: query, aggs/aggregations, from, size.
	Body map[string]any
	// From and Size override the body's paging fields when set.
	From *int
	Size *int
	// Scroll is the keep-alive of a scrolled search. Non-empty opens a cursor.
	Scroll string
	// IgnoreUnavailable skips missing indices instead of failing with 404.
	IgnoreUnavailable bool
}

// paging resolves from and size with body fields as fallback.
func (r Request) paging(defaultSize int) (from, size int, err error) {
	from, err = pagingParam(r.From, r.Body, "from", 0)
	if err != nil {
		return 0, 0, err
	}
	size, err = pagingParam(r.Size, r.Body, "size", defaultSize)
	if err != nil {
		return 0, 0, err
	}
	return from, size, nil
}

func pagingParam(explicit *int, body map[string]any, key string, fallback int) (int, error) {
	v := fallback
	if explicit != nil {
		v = *explicit
	} else if raw, ok := body[key]; ok && raw != nil {
		// float64 to int conversion of out of range values is implementation-defined
		if f, isFloat := raw.(float64); isFloat && (f >= math.MaxInt64 || f < math.MinInt64) {
			return 0, domain.NewValidation(fmt.Sprintf("[%s] is out of range, found [%v];", key, raw))
		}
		n, err := cast.ToIntE(raw)
		if err != nil {
			return 0, domain.NewParsing(fmt.Sprintf("[%s] must be an integer, got [%v]", key, raw))
		}
		v = n
	}
	if v < 0 {
		return 0, domain.NewValidation(fmt.Sprintf("[%s] parameter cannot be negative, found [%d];", key, v))
	}
	return v, nil
}

func (r Request) queryBody() (map[string]any, error) {
	raw, ok := r.Body["query"]
	if !ok || raw == nil {
		return nil, nil
	}
	q, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.NewParsing("[query] must be an object")
	}
	return q, nil
}

func (r Request) aggsBody() (map[string]any, error) {
	raw, ok := r.Body["aggs"]
	if !ok {
		raw, ok = r.Body["aggregations"]
	}
	if !ok || raw == nil {
		return nil, nil
	}
	aggs, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.NewParsing("[aggs] must be an object")
	}
	return aggs, nil
}

func (r Request) suggestBody() (map[string]any, error) {
	raw, ok := r.Body["suggest"]
	if !ok || raw == nil {
		return nil, nil
	}
	sug, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.NewParsing("[suggest] must be an object")
	}
	return sug, nil
}
