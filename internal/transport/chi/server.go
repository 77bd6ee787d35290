package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmem/internal/domain"
	domdoc "github.com/kailas-cloud/esmem/internal/domain/document"
	"github.com/kailas-cloud/esmem/internal/engine"
	"github.com/kailas-cloud/esmem/internal/fault"
	healthuc "github.com/kailas-cloud/esmem/internal/usecase/health"
	"github.com/kailas-cloud/esmem/internal/version"
)

// Config holds REST surface settings.
type Config struct {
	ClusterName  string
	APIKeys      []string
	MaxBodyBytes int64
	// Failure, when set, is toggled through /_esmem/server_failure.
	Failure *fault.ServerFailure
	// Middlewares run after authentication, before routing.
	Middlewares []func(http.Handler) http.Handler
}

// Server exposes the engine through the Elasticsearch REST API.
type Server struct {
	engine *engine.Engine
	cfg    Config
	logger *zap.Logger
}

// NewServer creates a REST server over eng.
func NewServer(eng *engine.Engine, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ClusterName == "" {
		cfg.ClusterName = healthuc.DefaultClusterName
	}
	return &Server{engine: eng, cfg: cfg, logger: logger}
}

// Router builds the chi router with middleware and every route mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(productHeader)
	r.Use(APIKeyAuthMiddleware(s.cfg.APIKeys))
	if s.cfg.MaxBodyBytes > 0 {
		r.Use(chiMiddleware.RequestSize(s.cfg.MaxBodyBytes))
	}
	r.Use(s.cfg.Middlewares...)
	r.NotFound(unknownRoute(http.StatusBadRequest))
	r.MethodNotAllowed(unknownRoute(http.StatusMethodNotAllowed))

	r.Get("/", s.Info)
	r.Head("/", s.Ping)

	if s.cfg.Failure != nil {
		r.Get("/_esmem/server_failure", s.ServerFailure)
		r.Put("/_esmem/server_failure", s.ServerFailure)
		r.Delete("/_esmem/server_failure", s.ServerFailure)
	}

	r.Get("/_cluster/health", s.ClusterHealth)
	r.Get("/_cluster/health/{index}", s.ClusterHealth)

	r.Post("/_bulk", s.Bulk)
	r.Put("/_bulk", s.Bulk)

	r.Get("/_search", s.Search)
	r.Post("/_search", s.Search)
	r.Get("/_search/scroll", s.Scroll)
	r.Post("/_search/scroll", s.Scroll)
	r.Get("/_search/scroll/{scroll_id}", s.Scroll)
	r.Post("/_search/scroll/{scroll_id}", s.Scroll)
	r.Delete("/_search/scroll", s.ClearScroll)
	r.Delete("/_search/scroll/{scroll_id}", s.ClearScroll)

	r.Get("/_count", s.Count)
	r.Post("/_count", s.Count)
	r.Post("/_refresh", s.Refresh)
	r.Get("/_refresh", s.Refresh)

	r.Route("/{index}", func(r chi.Router) {
		r.Put("/", s.CreateIndex)
		r.Delete("/", s.DeleteIndex)
		r.Head("/", s.IndexExists)

		r.Post("/_refresh", s.Refresh)
		r.Get("/_refresh", s.Refresh)
		r.Post("/_bulk", s.Bulk)
		r.Put("/_bulk", s.Bulk)
		r.Get("/_search", s.Search)
		r.Post("/_search", s.Search)
		r.Get("/_count", s.Count)
		r.Post("/_count", s.Count)

		r.Post("/_doc", s.IndexDocument)
		r.Put("/_create/{id}", s.CreateDocument)
		r.Post("/_create/{id}", s.CreateDocument)
		r.Post("/_update/{id}", s.UpdateDocument)
		r.Get("/_source/{id}", s.GetSource)

		// typed paths address the mapping type in place of _doc
		r.Route("/{type}/{id}", func(r chi.Router) {
			r.Use(reservedType)
			r.Put("/", s.IndexDocument)
			r.Post("/", s.IndexDocument)
			r.Get("/", s.GetDocument)
			r.Head("/", s.DocumentExists)
			r.Delete("/", s.DeleteDocument)
			r.Post("/_update", s.UpdateDocument)
			r.Put("/_create", s.CreateDocument)
			r.Post("/_create", s.CreateDocument)
		})
	})
	return r
}

// Info handles GET /. It bypasses the engine so clients can still identify the
// cluster while server failure is simulated.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         "esmem",
		"cluster_name": s.cfg.ClusterName,
		"cluster_uuid": "_na_",
		"version": map[string]any{
			"number":                              version.Compatibility,
			"build_flavor":                        "default",
			"build_type":                          "esmem",
			"build_hash":                          version.Commit,
			"build_date":                          version.Date,
			"build_snapshot":                      false,
			"lucene_version":                      version.LuceneVersion,
			"minimum_wire_compatibility_version":  "7.17.0",
			"minimum_index_compatibility_version": "7.0.0",
		},
		"tagline": "You Know, for Search",
	})
}

// Ping handles HEAD /.
func (s *Server) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ServerFailure handles /_esmem/server_failure: PUT enables simulated failure,
// DELETE disables it and GET reports the current state.
func (s *Server) ServerFailure(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		s.cfg.Failure.Enable()
	case http.MethodDelete:
		s.cfg.Failure.Disable()
	}
	s.logger.Info("server failure mode", zap.Bool("enabled", s.cfg.Failure.Enabled()))
	writeJSON(w, http.StatusOK, map[string]any{"enabled": s.cfg.Failure.Enabled()})
}

// ClusterHealth handles GET /_cluster/health.
func (s *Server) ClusterHealth(w http.ResponseWriter, r *http.Request) {
	body, err := s.engine.ClusterHealth(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// CreateIndex handles PUT /{index}. Settings and mappings in the body are accepted and ignored.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	body, err := s.engine.CreateIndex(r.Context(), chi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// DeleteIndex handles DELETE /{index}. Comma-separated names are deleted in turn.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	for _, name := range splitList(chi.URLParam(r, "index")) {
		var err error
		if body, err = s.engine.DeleteIndex(r.Context(), name); err != nil {
			s.handleError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// IndexExists handles HEAD /{index}.
func (s *Server) IndexExists(w http.ResponseWriter, r *http.Request) {
	ok, err := s.engine.IndexExists(r.Context(), chi.URLParam(r, "index"))
	if err != nil {
		w.WriteHeader(domain.StatusOf(err))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Refresh handles /_refresh and /{index}/_refresh.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	body, err := s.engine.Refresh(r.Context(), chi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// IndexDocument handles PUT/POST /{index}/_doc/{id} and POST /{index}/_doc.
// op_type=create turns the write into a create.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := s.docRequest(w, r, true)
	if !ok {
		return
	}

	write := s.engine.Index
	if r.URL.Query().Get("op_type") == "create" {
		write = s.engine.Create
	}
	body, err := write(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, writeStatus(body), body)
}

// CreateDocument handles PUT/POST /{index}/_create/{id}.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := s.docRequest(w, r, true)
	if !ok {
		return
	}
	body, err := s.engine.Create(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

// UpdateDocument handles POST /{index}/_update/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := s.docRequest(w, r, true)
	if !ok {
		return
	}
	body, err := s.engine.Update(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, writeStatus(body), body)
}

// GetDocument handles GET /{index}/_doc/{id}. A missing document answers 404 with found:false.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	req, _ := s.docRequest(w, r, false)
	body, err := s.engine.Get(r.Context(), req)
	if err != nil {
		s.handleMissingDocument(w, r, req, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// GetSource handles GET /{index}/_source/{id}.
func (s *Server) GetSource(w http.ResponseWriter, r *http.Request) {
	req, _ := s.docRequest(w, r, false)
	body, err := s.engine.GetSource(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// DocumentExists handles HEAD /{index}/_doc/{id}.
func (s *Server) DocumentExists(w http.ResponseWriter, r *http.Request) {
	req, _ := s.docRequest(w, r, false)
	ok, err := s.engine.Exists(r.Context(), req)
	switch {
	case err != nil:
		w.WriteHeader(domain.StatusOf(err))
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// DeleteDocument handles DELETE /{index}/_doc/{id}. A missing document answers 404 with result not_found.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	req, _ := s.docRequest(w, r, false)
	body, err := s.engine.Delete(r.Context(), req)
	if err != nil {
		s.handleMissingDocument(w, r, req, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Bulk handles /_bulk and /{index}/_bulk.
func (s *Server) Bulk(w http.ResponseWriter, r *http.Request) {
	body, err := s.engine.Bulk(r.Context(), engine.BulkRequest{
		Body:  r.Body,
		Index: chi.URLParam(r, "index"),
		Type:  r.URL.Query().Get("type"),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Search handles /_search and /{index}/_search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequest(w, r)
	if !ok {
		return
	}
	req.Scroll = r.URL.Query().Get("scroll")

	body, err := s.engine.Search(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalHitsAsInt(r, body))
}

// Scroll handles /_search/scroll. The id comes from the path, the scroll_id parameter or the body.
func (s *Server) Scroll(w http.ResponseWriter, r *http.Request) {
	in, err := decodeBody(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ids := scrollIDs(r, in)
	if len(ids) != 1 {
		s.handleError(w, r, domain.NewValidation("scrollId is missing;"))
		return
	}

	body, err := s.engine.Scroll(r.Context(), ids[0])
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalHitsAsInt(r, body))
}

// ClearScroll handles DELETE /_search/scroll. "_all" frees every cursor.
func (s *Server) ClearScroll(w http.ResponseWriter, r *http.Request) {
	in, err := decodeBody(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	body, err := s.engine.ClearScroll(r.Context(), scrollIDs(r, in)...)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Count handles /_count and /{index}/_count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequest(w, r)
	if !ok {
		return
	}
	body, err := s.engine.Count(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func unknownRoute(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, map[string]any{
			"error":  "no handler found for uri [" + r.URL.Path + "] and method [" + r.Method + "]",
			"status": status,
		})
	}
}

// endpointSegments are reserved path segments that name an endpoint rather than a type.
var endpointSegments = map[string]bool{
	"_create": true,
	"_update": true,
	"_source": true,
}

// reservedType keeps reserved segments from being read as a mapping type: an endpoint
// reached with the wrong method answers 405, any other underscore segment 400.
func reservedType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := chi.URLParam(r, "type")
		switch {
		case t == domdoc.DefaultType || !strings.HasPrefix(t, "_"):
			next.ServeHTTP(w, r)
		case endpointSegments[t]:
			unknownRoute(http.StatusMethodNotAllowed)(w, r)
		default:
			unknownRoute(http.StatusBadRequest)(w, r)
		}
	})
}

// docRequest reads the path and, when withBody is set, the JSON body of a document call.
func (s *Server) docRequest(w http.ResponseWriter, r *http.Request, withBody bool) (engine.DocRequest, bool) {
	req := engine.DocRequest{
		Index: chi.URLParam(r, "index"),
		Type:  chi.URLParam(r, "type"),
		ID:    chi.URLParam(r, "id"),
	}
	if req.Type == "" {
		req.Type = r.URL.Query().Get("type")
	}
	// _doc addresses a document regardless of its mapping type
	if req.Type == domdoc.DefaultType {
		req.Type = ""
	}
	if !withBody {
		return req, true
	}

	body, err := decodeBody(r)
	if err != nil {
		s.handleError(w, r, err)
		return req, false
	}
	if body == nil {
		s.handleError(w, r, domain.NewParsing("request body is required"))
		return req, false
	}
	req.Body = body
	return req, true
}

func (s *Server) searchRequest(w http.ResponseWriter, r *http.Request) (engine.SearchRequest, bool) {
	q := r.URL.Query()
	req := engine.SearchRequest{
		Indices:           splitList(chi.URLParam(r, "index")),
		DocType:           q.Get("type"),
		IgnoreUnavailable: q.Get("ignore_unavailable") == "true",
	}

	var err error
	if req.From, err = intParam(q.Get("from"), "from"); err != nil {
		s.handleError(w, r, err)
		return req, false
	}
	if req.Size, err = intParam(q.Get("size"), "size"); err != nil {
		s.handleError(w, r, err)
		return req, false
	}
	if req.Body, err = decodeBody(r); err != nil {
		s.handleError(w, r, err)
		return req, false
	}
	return req, true
}

// handleMissingDocument answers a missing document the way a cluster does: 404 with a
// found:false body. A missing index stays an error.
func (s *Server) handleMissingDocument(w http.ResponseWriter, r *http.Request, req engine.DocRequest, err error) {
	var se *domain.StatusError
	if !errors.As(err, &se) || se.Type != domain.TypeNotFound {
		s.handleError(w, r, err)
		return
	}
	docType := req.Type
	if docType == "" {
		docType = domdoc.DefaultType
	}
	body := map[string]any{
		"_index": req.Index,
		"_type":  docType,
		"_id":    req.ID,
		"found":  false,
	}
	if r.Method == http.MethodDelete {
		body["_version"] = 1
		body["result"] = "not_found"
	}
	writeJSON(w, http.StatusNotFound, body)
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var se *domain.StatusError
	if !errors.As(err, &se) {
		s.logger.Error("internal error", zap.Error(err), zap.String("path", r.URL.Path))
		se = domain.NewServerFailure().(*domain.StatusError)
	}
	if se.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `ApiKey`)
	}
	writeJSON(w, se.Status, errorBody(se))
}

func errorBody(se *domain.StatusError) map[string]any {
	cause := se.Body()
	cause["root_cause"] = []any{se.Body()}
	return map[string]any{"error": cause, "status": se.Status}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStatus is 201 for a write that created its document and 200 otherwise.
func writeStatus(body map[string]any) int {
	if body["result"] == "created" {
		return http.StatusCreated
	}
	return http.StatusOK
}

// decodeBody reads an optional JSON object body. An empty body decodes to nil.
func decodeBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return nil, nil
	}
	var body map[string]any
	err := json.NewDecoder(r.Body).Decode(&body)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, &domain.StatusError{
			Status: http.StatusRequestEntityTooLarge,
			Type:   domain.TypeParsing,
			Reason: "request body is too large",
		}
	}
	if err != nil {
		return nil, domain.NewParsing("failed to parse request body: " + err.Error())
	}
	return body, nil
}

// scrollIDs collects scroll ids from the path, the scroll_id parameter and the body,
// whose scroll_id is a string or a list of strings.
func scrollIDs(r *http.Request, body map[string]any) []string {
	if id := chi.URLParam(r, "scroll_id"); id != "" {
		return splitList(id)
	}
	if id := r.URL.Query().Get("scroll_id"); id != "" {
		return splitList(id)
	}
	switch v := body["scroll_id"].(type) {
	case string:
		return []string{v}
	case []any:
		ids := make([]string, 0, len(v))
		for _, id := range v {
			if s, ok := id.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewParsing("Failed to parse int parameter [" + name + "] with value [" + raw + "]")
	}
	return &n, nil
}

// totalHitsAsInt renders hits.total as a bare number when rest_total_hits_as_int is set.
func totalHitsAsInt(r *http.Request, body map[string]any) map[string]any {
	if r.URL.Query().Get("rest_total_hits_as_int") != "true" {
		return body
	}
	hits, ok := body["hits"].(map[string]any)
	if !ok {
		return body
	}
	if total, ok := hits["total"].(map[string]any); ok {
		hits["total"] = total["value"]
	}
	return body
}
