package search

import (
	"context"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/kailas-cloud/esmem/internal/domain"
	"github.com/kailas-cloud/esmem/internal/domain/aggregation"
	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
	"github.com/kailas-cloud/esmem/internal/domain/query"
	"github.com/kailas-cloud/esmem/internal/usecase/scroll"
)

// Service evaluates queries over stored documents, pages results and keeps scroll cursors.
type Service struct {
	store       Store
	cursors     Cursors
	defaultSize int
	now         func() time.Time
}

// New creates a search service.
func New(store Store, cursors Cursors) *Service {
	return &Service{
		store:       store,
		cursors:     cursors,
		defaultSize: DefaultPageSize,
		now:         time.Now,
	}
}

// WithDefaultPageSize configures the page size used when a request sets none.
func (s *Service) WithDefaultPageSize(size int) *Service {
	if size > 0 {
		s.defaultSize = size
	}
	return s
}

// Search runs the query and returns one page. When req.Scroll is set and the page is
// not empty, a cursor for the next page is opened and its id returned with the page.
func (s *Service) Search(_ context.Context, req Request) (Response, error) {
	start := s.now()

	from, size, err := req.paging(s.defaultSize)
	if err != nil {
		return Response{}, err
	}
	indices, err := s.resolve(req.Indices, req.IgnoreUnavailable)
	if err != nil {
		return Response{}, err
	}

	resp, err := s.page(indices, req.DocType, req.Body, from, size)
	if err != nil {
		return Response{}, err
	}
	if req.Scroll != "" && len(resp.Hits) > 0 {
		resp.ScrollID = s.cursors.Open(scroll.Cursor{
			Indices: indices,
			DocType: req.DocType,
			Body:    req.Body,
			From:    advance(from, size),
			Size:    size,
		})
	}
	resp.Took = s.now().Sub(start).Milliseconds()
	return resp, nil
}

// Scroll consumes the cursor and returns the page it points at, with a fresh
// cursor for the following page unless this one is empty.
func (s *Service) Scroll(_ context.Context, scrollID string) (Response, error) {
	start := s.now()

	c, err := s.cursors.Take(scrollID)
	if err != nil {
		return Response{}, err
	}
	indices, err := s.resolve(c.Indices, true)
	if err != nil {
		return Response{}, err
	}

	resp, err := s.page(indices, c.DocType, c.Body, c.From, c.Size)
	if err != nil {
		return Response{}, err
	}
	if len(resp.Hits) > 0 {
		next := c
		next.From = advance(c.From, c.Size)
		resp.ScrollID = s.cursors.Open(next)
	}
	resp.Took = s.now().Sub(start).Milliseconds()
	return resp, nil
}

// Count returns how many documents match the query.
func (s *Service) Count(_ context.Context, req Request) (CountResponse, error) {
	indices, err := s.resolve(req.Indices, req.IgnoreUnavailable)
	if err != nil {
		return CountResponse{}, err
	}
	node, err := parseQuery(req)
	if err != nil {
		return CountResponse{}, err
	}

	matched := s.match(indices, req.DocType, node)
	return CountResponse{Count: len(matched), Shards: len(indices)}, nil
}

func (s *Service) page(indices []string, docType string, body map[string]any, from, size int) (Response, error) {
	req := Request{Body: body}
	node, err := parseQuery(req)
	if err != nil {
		return Response{}, err
	}
	aggsBody, err := req.aggsBody()
	if err != nil {
		return Response{}, err
	}
	suggestBody, err := req.suggestBody()
	if err != nil {
		return Response{}, err
	}
	var defs []aggregation.Definition
	if aggsBody != nil {
		if defs, err = aggregation.Parse(aggsBody); err != nil {
			return Response{}, err
		}
	}

	matched := s.match(indices, docType, node)
	resp := Response{
		Shards: len(indices),
		Total:  len(matched),
		Hits:   []domdoc.Document{},
	}

	if from < len(matched) {
		end := len(matched)
		if size < end-from {
			end = from + size
		}
		for _, d := range matched[from:end] {
			resp.Hits = append(resp.Hits, d.Clone())
		}
	}

	if aggsBody != nil {
		sources := make([]map[string]any, len(matched))
		for i, d := range matched {
			sources[i] = d.Source()
		}
		resp.Aggregations = make([]aggregation.Result, len(defs))
		for i, def := range defs {
			resp.Aggregations[i] = aggregation.Compute(def, sources)
		}
	}
	if suggestBody != nil {
		if resp.Suggest, err = suggestions(suggestBody); err != nil {
			return Response{}, err
		}
	}
	return resp, nil
}

// advance returns the offset of the page after [from, from+size), saturating at math.MaxInt.
func advance(from, size int) int {
	if size > math.MaxInt-from {
		return math.MaxInt
	}
	return from + size
}

func (s *Service) match(indices []string, docType string, node query.Node) []domdoc.Document {
	if len(indices) == 0 {
		return nil
	}
	var matched []domdoc.Document
	for _, d := range s.store.Iterate(indices, docType) {
		if query.Evaluate(node, d.Source()) {
			matched = append(matched, d)
		}
	}
	return matched
}

// resolve expands index selectors into existing index names, in order and without duplicates.
func (s *Service) resolve(selectors []string, ignoreMissing bool) ([]string, error) {
	all := s.store.Indices()
	if len(selectors) == 0 {
		return all, nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, sel := range selectors {
		switch {
		case sel == "_all" || sel == "*":
			for _, name := range all {
				add(name)
			}
		case strings.ContainsAny(sel, "*?"):
			for _, name := range all {
				if ok, _ := path.Match(sel, name); ok {
					add(name)
				}
			}
		case s.store.IndexExists(sel):
			add(sel)
		case !ignoreMissing:
			return nil, domain.NewIndexNotFound(sel)
		}
	}
	return out, nil
}

func parseQuery(req Request) (query.Node, error) {
	q, err := req.queryBody()
	if err != nil {
		return nil, err
	}
	node, err := query.Parse(q)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return node, nil
}
