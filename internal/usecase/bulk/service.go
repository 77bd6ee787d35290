package bulk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kailas-cloud/esmem/internal/domain"
	dombulk "github.com/kailas-cloud/esmem/internal/domain/bulk"
)

// Service executes bulk bodies with per-item error reporting.
type Service struct {
	docs DocumentWriter
	ids  IDGenerator
	now  func() time.Time
}

// New creates a bulk service.
func New(docs DocumentWriter, ids IDGenerator) *Service {
	return &Service{docs: docs, ids: ids, now: time.Now}
}

// Run parses an NDJSON body and executes it. A malformed body fails the whole call
// before any action is applied.
func (s *Service) Run(ctx context.Context, body io.Reader, defaultIndex, defaultType string) (dombulk.Response, error) {
	actions, err := dombulk.Parse(body, defaultIndex, defaultType)
	if err != nil {
		return dombulk.Response{}, fmt.Errorf("parse bulk body: %w", err)
	}
	return s.Execute(ctx, actions), nil
}

// Execute applies actions in order. Every action yields exactly one item.
func (s *Service) Execute(ctx context.Context, actions []dombulk.Action) dombulk.Response {
	start := s.now()
	resp := dombulk.Response{Items: make([]dombulk.Result, len(actions))}

	for i, a := range actions {
		if a.ID == "" {
			a.ID = s.ids.NewID()
		}
		item := s.apply(ctx, a)
		if item.Failed() {
			resp.Errors = true
		}
		resp.Items[i] = item
	}

	resp.Took = s.now().Sub(start).Milliseconds()
	return resp
}

func (s *Service) apply(ctx context.Context, a dombulk.Action) dombulk.Result {
	switch a.Op {
	case dombulk.OpIndex:
		doc, created, err := s.docs.Index(ctx, a.Index, a.Type, a.ID, a.Source)
		if err != nil {
			return dombulk.NewError(a, err)
		}
		if created {
			return dombulk.NewOK(a, http.StatusCreated, dombulk.ResultCreated, doc.Version())
		}
		return dombulk.NewOK(a, http.StatusOK, dombulk.ResultUpdated, doc.Version())

	case dombulk.OpCreate:
		doc, err := s.docs.Create(ctx, a.Index, a.Type, a.ID, a.Source)
		if err != nil {
			return dombulk.NewError(a, err)
		}
		return dombulk.NewOK(a, http.StatusCreated, dombulk.ResultCreated, doc.Version())

	case dombulk.OpUpdate:
		doc, err := s.docs.Update(ctx, a.Index, a.ID, a.Source)
		if err != nil {
			return dombulk.NewError(a, err)
		}
		return dombulk.NewOK(a, http.StatusOK, dombulk.ResultUpdated, doc.Version())

	case dombulk.OpDelete:
		doc, err := s.docs.Delete(ctx, a.Index, a.ID, "")
		if errors.Is(err, domain.ErrIndexNotFound) {
			err = domain.NewDocumentNotFound(a.Index, a.ID)
		}
		if err != nil {
			return dombulk.NewError(a, err)
		}
		return dombulk.NewOK(a, http.StatusOK, dombulk.ResultDeleted, doc.Version())
	}
	return dombulk.NewError(a, domain.NewUnsupported("unknown bulk action ["+string(a.Op)+"]"))
}
