// Package esmock provides an in-memory stand-in for an Elasticsearch cluster
// for tests that exercise search-backed code without a running cluster.
//
// # Direct API
//
//	m, _ := esmock.New(esmock.WithIndices("books"))
//	m.Index(ctx, esmock.DocRequest{Index: "books", ID: "1", Body: map[string]any{"title": "dune"}})
//	res, _ := m.Search(ctx, esmock.SearchRequest{Indices: []string{"books"}})
//
// # Through the official client
//
//	es, _ := m.NewClient()
//	res, _ := es.Search(es.Search.WithIndex("books"))
//
// The client talks to the mock through an in-process transport; no listener is opened.
// EnableServerFailure makes every operation answer 500 until DisableServerFailure.
package esmock
