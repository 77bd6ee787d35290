package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/esmem/internal/domain"
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se *domain.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a StatusError", err)
	}
	return se.Status
}

func mustIndex(t *testing.T, e *Engine, index, id string, body map[string]any) map[string]any {
	t.Helper()
	resp, err := e.Index(context.Background(), DocRequest{Index: index, ID: id, Body: body})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	return resp
}

func hitsOf(t *testing.T, resp map[string]any) []any {
	t.Helper()
	return resp["hits"].(map[string]any)["hits"].([]any)
}

// --- Versioning ---

func TestIndex_Versions(t *testing.T) {
	e := New()
	ctx := context.Background()

	first := mustIndex(t, e, "i", "1", map[string]any{"v": 1})
	if first["_version"] != 1 || first["created"] != true || first["result"] != "created" {
		t.Errorf("first write = %v", first)
	}
	second := mustIndex(t, e, "i", "1", map[string]any{"v": 2})
	if second["_version"] != 2 || second["created"] != true || second["result"] != "updated" {
		t.Errorf("second write = %v", second)
	}

	if _, err := e.Delete(ctx, DocRequest{Index: "i", ID: "1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	again := mustIndex(t, e, "i", "1", map[string]any{})
	if again["_version"] != 1 {
		t.Errorf("version after delete = %v, want 1", again["_version"])
	}
}

func TestIndex_GeneratedID(t *testing.T) {
	e := New()
	resp := mustIndex(t, e, "i", "", map[string]any{})
	id, _ := resp["_id"].(string)
	if len(id) != idLength {
		t.Errorf("generated id %q has length %d", id, len(id))
	}
}

// --- Get / Exists / Delete ---

func TestGet_FoundAndNotFound(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{"k": "v"})

	got, err := e.Get(ctx, DocRequest{Index: "i", ID: "1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["found"] != true || got["_source"].(map[string]any)["k"] != "v" {
		t.Errorf("Get = %v", got)
	}

	_, err = e.Get(ctx, DocRequest{Index: "i", ID: "2"})
	if statusOf(t, err) != http.StatusNotFound {
		t.Errorf("status = %d", statusOf(t, err))
	}

	got, err = e.Get(ctx, DocRequest{Index: "i", ID: "2"}, Ignore(http.StatusNotFound))
	if err != nil {
		t.Fatalf("ignored Get: %v", err)
	}
	if got["found"] != false {
		t.Errorf("ignored Get = %v, want found:false", got)
	}
}

func TestExists_AgreesWithGet(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{})

	for _, req := range []DocRequest{
		{Index: "i", ID: "1"},
		{Index: "i", ID: "2"},
		{Index: "nope", ID: "1"},
	} {
		exists, err := e.Exists(ctx, req)
		if err != nil {
			t.Fatalf("Exists: %v", err)
		}
		_, getErr := e.Get(ctx, req)
		if exists != (getErr == nil) {
			t.Errorf("%+v: exists = %v, get error = %v", req, exists, getErr)
		}
	}
}

func TestDelete_Responses(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{})
	mustIndex(t, e, "i", "1", map[string]any{})

	resp, err := e.Delete(ctx, DocRequest{Index: "i", ID: "1"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if resp["found"] != true || resp["_version"] != 1 || resp["_id"] != "1" {
		t.Errorf("Delete = %v", resp)
	}

	_, err = e.Delete(ctx, DocRequest{Index: "i", ID: "1"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete error = %v", err)
	}

	resp, err = e.Delete(ctx, DocRequest{Index: "i", ID: "1"}, Ignore(404))
	if err != nil || resp["found"] != false {
		t.Errorf("ignored Delete = %v, %v", resp, err)
	}
}

// --- Create / Update ---

func TestCreate_Conflict(t *testing.T) {
	e := New()
	ctx := context.Background()
	req := DocRequest{Index: "i", ID: "1", Body: map[string]any{}}

	if _, err := e.Create(ctx, req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := e.Create(ctx, req)
	if statusOf(t, err) != http.StatusConflict {
		t.Errorf("status = %d, want 409", statusOf(t, err))
	}

	resp, err := e.Create(ctx, req, Ignore(http.StatusConflict))
	if err != nil {
		t.Fatalf("ignored Create: %v", err)
	}
	if resp["status"] != http.StatusConflict {
		t.Errorf("ignored Create = %v", resp)
	}
}

func TestUpdate(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{"a": 1})

	resp, err := e.Update(ctx, DocRequest{Index: "i", ID: "1", Body: map[string]any{"doc": map[string]any{"b": 2}}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resp["_version"] != 2 || resp["result"] != "updated" {
		t.Errorf("Update = %v", resp)
	}

	_, err = e.Update(ctx, DocRequest{Index: "i", ID: "2", Body: map[string]any{"doc": map[string]any{}}})
	if statusOf(t, err) != http.StatusNotFound {
		t.Errorf("missing update status = %d", statusOf(t, err))
	}

	resp, err = e.Update(ctx, DocRequest{Index: "i", ID: "2", Body: map[string]any{
		"doc":           map[string]any{"c": 3},
		"doc_as_upsert": true,
	}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if resp["result"] != "created" || resp["_version"] != 1 {
		t.Errorf("upsert = %v", resp)
	}
}

// --- Bulk ---

func TestBulk_Statuses(t *testing.T) {
	e := New()
	body := `{"create":{"_index":"i","_id":"1"}}
{"a":1}
{"create":{"_index":"i","_id":"1"}}
{"a":1}
{"delete":{"_index":"i","_id":"1"}}
{"delete":{"_index":"i","_id":"1"}}
`
	resp, err := e.Bulk(context.Background(), BulkRequest{Body: strings.NewReader(body)})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if resp["errors"] != true {
		t.Error("errors = false")
	}

	items := resp["items"].([]any)
	want := []struct {
		op     string
		status int
	}{
		{"create", 201}, {"create", 409}, {"delete", 200}, {"delete", 404},
	}
	for i, w := range want {
		item := items[i].(map[string]any)[w.op].(map[string]any)
		if item["status"] != w.status {
			t.Errorf("item %d status = %v, want %d", i+1, item["status"], w.status)
		}
	}
	last := items[3].(map[string]any)["delete"].(map[string]any)
	if last["error"].(map[string]any)["type"] != "not_found" {
		t.Errorf("last item error = %v", last["error"])
	}
}

func TestBulk_MissingIDIsFatal(t *testing.T) {
	e := New()
	_, err := e.Bulk(context.Background(), BulkRequest{
		Body: strings.NewReader(`{"update":{"_index":"i"}}` + "\n" + `{"doc":{}}` + "\n"),
	})
	if statusOf(t, err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", statusOf(t, err))
	}
	if ok, _ := e.IndexExists(context.Background(), "i"); ok {
		t.Error("failed bulk created an index")
	}
}

// --- Search / Scroll / Count ---

func TestScroll_ThroughEngine(t *testing.T) {
	e := New()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		mustIndex(t, e, "i", fmt.Sprint(i), map[string]any{"n": i})
	}

	size := 30
	resp, err := e.Search(ctx, SearchRequest{Indices: []string{"i"}, Size: &size, Scroll: "1m"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hitsOf(t, resp)) != 30 {
		t.Fatalf("first page = %d", len(hitsOf(t, resp)))
	}

	for _, want := range []int{30, 30, 10} {
		id := resp["_scroll_id"].(string)
		resp, err = e.Scroll(ctx, id)
		if err != nil {
			t.Fatalf("Scroll: %v", err)
		}
		if got := len(hitsOf(t, resp)); got != want {
			t.Errorf("page = %d, want %d", got, want)
		}
		if _, err := e.Scroll(ctx, id); statusOf(t, err) != http.StatusNotFound {
			t.Error("scroll id reused")
		}
	}
}

func TestClearScroll(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{})

	resp, _ := e.Search(ctx, SearchRequest{Scroll: "1m"})
	id := resp["_scroll_id"].(string)

	cleared, err := e.ClearScroll(ctx, id)
	if err != nil {
		t.Fatalf("ClearScroll: %v", err)
	}
	if cleared["num_freed"] != 1 {
		t.Errorf("num_freed = %v", cleared["num_freed"])
	}
	if _, err := e.Scroll(ctx, id); !errors.Is(err, domain.ErrScrollNotFound) {
		t.Errorf("cleared scroll error = %v", err)
	}
}

func TestGetSource(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{"k": "v", "nested": map[string]any{"n": 1.0}})

	src, err := e.GetSource(ctx, DocRequest{Index: "i", ID: "1"})
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if src["k"] != "v" {
		t.Errorf("GetSource = %v", src)
	}

	src["nested"].(map[string]any)["n"] = 2.0
	again, _ := e.GetSource(ctx, DocRequest{Index: "i", ID: "1"})
	if again["nested"].(map[string]any)["n"] != 1.0 {
		t.Error("GetSource returned the stored source")
	}

	if _, err := e.GetSource(ctx, DocRequest{Index: "i", ID: "2"}); statusOf(t, err) != http.StatusNotFound {
		t.Errorf("missing doc status = %d", statusOf(t, err))
	}
}

func TestSuggest(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{"string": "x", "id": 1.0})

	got, err := e.Suggest(ctx, []string{"i"}, map[string]any{
		"suggestion-string": map[string]any{"text": "test_text", "term": map[string]any{"field": "string"}},
		"suggestion-id":     map[string]any{"text": 1234567.0, "term": map[string]any{"field": "id"}},
	})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}

	tests := []struct {
		name       string
		text, want any
	}{
		{"suggestion-string", "test_text", "test_text_suggestion"},
		{"suggestion-id", 1234567.0, 1234568.0},
	}
	for _, tt := range tests {
		entries, _ := got[tt.name].([]any)
		if len(entries) != 1 {
			t.Fatalf("%s: got %v", tt.name, got[tt.name])
		}
		entry := entries[0].(map[string]any)
		option := entry["options"].([]any)[0].(map[string]any)
		if entry["text"] != tt.text || entry["length"] != 1 || entry["offset"] != 0 {
			t.Errorf("%s entry = %v", tt.name, entry)
		}
		if option["text"] != tt.want || option["freq"] != 1 || option["score"] != 1.0 {
			t.Errorf("%s option = %v", tt.name, option)
		}
	}

	if _, err := e.Suggest(ctx, []string{"nope"}, map[string]any{}); statusOf(t, err) != http.StatusNotFound {
		t.Error("missing index not reported")
	}
}

func TestSearch_HugeSizeDoesNotPanic(t *testing.T) {
	e := New()
	ctx := context.Background()
	for i := range 3 {
		mustIndex(t, e, "i", fmt.Sprint(i), map[string]any{"n": float64(i)})
	}

	from, size := 1, math.MaxInt
	resp, err := e.Search(ctx, SearchRequest{Indices: []string{"i"}, From: &from, Size: &size})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hitsOf(t, resp)) != 2 {
		t.Errorf("hits = %v", hitsOf(t, resp))
	}
}

func TestSearch_MissingIndexIgnored(t *testing.T) {
	e := New()
	ctx := context.Background()
	req := SearchRequest{Indices: []string{"nope"}}

	if _, err := e.Search(ctx, req); statusOf(t, err) != http.StatusNotFound {
		t.Error("missing index not reported")
	}
	resp, err := e.Search(ctx, req, Ignore(404))
	if err != nil {
		t.Fatalf("ignored search: %v", err)
	}
	if len(hitsOf(t, resp)) != 0 {
		t.Errorf("hits = %v", hitsOf(t, resp))
	}

	count, err := e.Count(ctx, req, Ignore(404))
	if err != nil || count["count"] != 0 {
		t.Errorf("ignored count = %v, %v", count, err)
	}
}

func TestSearch_TermVersusMatch(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{"field": "test"})

	tests := []struct {
		clause string
		want   int
	}{
		{"term", 0},
		{"match", 1},
	}
	for _, tt := range tests {
		body := map[string]any{"query": map[string]any{tt.clause: map[string]any{"field": "TEST"}}}
		resp, err := e.Count(ctx, SearchRequest{Body: body})
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if resp["count"] != tt.want {
			t.Errorf("%s count = %v, want %d", tt.clause, resp["count"], tt.want)
		}
	}
}

func TestSearch_ReturnsCopies(t *testing.T) {
	e := New()
	ctx := context.Background()
	mustIndex(t, e, "i", "1", map[string]any{"k": "v"})

	resp, _ := e.Search(ctx, SearchRequest{})
	hitsOf(t, resp)[0].(map[string]any)["_source"].(map[string]any)["k"] = "changed"

	got, _ := e.Get(ctx, DocRequest{Index: "i", ID: "1"})
	if got["_source"].(map[string]any)["k"] != "v" {
		t.Error("search hit shares source with the store")
	}
}

// --- Indices / health ---

func TestIndices(t *testing.T) {
	e := New()
	ctx := context.Background()

	if _, err := e.CreateIndex(ctx, "a"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	mustIndex(t, e, "a", "1", map[string]any{})
	if _, err := e.CreateIndex(ctx, "a"); err != nil {
		t.Fatalf("second CreateIndex: %v", err)
	}
	if ok, _ := e.IndexExists(ctx, "a"); !ok {
		t.Error("index a missing")
	}
	if _, err := e.Refresh(ctx, "a"); err != nil {
		t.Errorf("Refresh: %v", err)
	}
	if _, err := e.DeleteIndex(ctx, "a"); err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
	if _, err := e.DeleteIndex(ctx, "a"); err != nil {
		t.Errorf("deleting missing index: %v", err)
	}
	if ok, _ := e.IndexExists(ctx, "a"); ok {
		t.Error("index a still exists")
	}
}

func TestClusterHealth(t *testing.T) {
	resp, err := New(WithClusterName("ci")).ClusterHealth(context.Background())
	if err != nil {
		t.Fatalf("ClusterHealth: %v", err)
	}
	if resp["status"] != "green" || resp["cluster_name"] != "ci" {
		t.Errorf("health = %v", resp)
	}
}

func TestReset(t *testing.T) {
	e := New()
	mustIndex(t, e, "a", "1", map[string]any{})
	e.Reset()
	if len(e.Indices()) != 0 {
		t.Errorf("indices after reset = %v", e.Indices())
	}
}

// --- Interceptors ---

func TestInterceptors_OrderAndShortCircuit(t *testing.T) {
	var trace []string
	record := func(name string) Interceptor {
		return func(ctx context.Context, op Op, next Handler) (any, error) {
			trace = append(trace, name+":"+string(op))
			return next(ctx)
		}
	}
	failing := func(_ context.Context, _ Op, _ Handler) (any, error) {
		return nil, domain.NewServerFailure()
	}

	e := New(WithInterceptors(record("outer"), record("inner")))
	mustIndex(t, e, "i", "1", map[string]any{})
	if strings.Join(trace, ",") != "outer:index,inner:index" {
		t.Errorf("trace = %v", trace)
	}

	broken := New(WithInterceptors(failing))
	_, err := broken.Index(context.Background(), DocRequest{Index: "i", ID: "1", Body: map[string]any{}})
	if statusOf(t, err) != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", statusOf(t, err))
	}
	if ok, _ := broken.IndexExists(context.Background(), "i"); ok {
		t.Error("short-circuited write reached the store")
	}
}

func TestInterceptors_WrongResultType(t *testing.T) {
	bogus := func(_ context.Context, _ Op, _ Handler) (any, error) { return "not a map", nil }
	_, err := New(WithInterceptors(bogus)).ClusterHealth(context.Background())
	if err == nil {
		t.Error("expected type error")
	}
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := New(WithLogger(zap.New(core)))
	ctx := context.Background()

	mustIndex(t, e, "i", "1", map[string]any{})
	_, _ = e.Get(ctx, DocRequest{Index: "i", ID: "missing"})

	if n := logs.FilterMessage("operation completed").Len(); n != 1 {
		t.Errorf("completed entries = %d, want 1", n)
	}
	failed := logs.FilterMessage("operation failed").All()
	if len(failed) != 1 || failed[0].ContextMap()["op"] != "get" {
		t.Errorf("failed entries = %v", failed)
	}
}

// --- Ids / concurrency ---

func TestRandomIDs(t *testing.T) {
	g := RandomIDs{}
	if a, b := g.NewID(), g.NewID(); a == b || len(a) != idLength {
		t.Errorf("ids %q, %q", a, b)
	}

	raw, err := base64.StdEncoding.DecodeString(g.NewScrollID())
	if err != nil {
		t.Fatalf("scroll id is not base64: %v", err)
	}
	if len(raw) != idLength*scrollPhases {
		t.Errorf("decoded scroll id length = %d", len(raw))
	}
}

func TestConcurrentWrites(t *testing.T) {
	e := New()
	ctx := context.Background()

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, _ = e.Index(ctx, DocRequest{Index: "i", ID: "shared", Body: map[string]any{"w": w}})
				_, _ = e.Search(ctx, SearchRequest{})
			}
		}()
	}
	wg.Wait()

	got, err := e.Get(ctx, DocRequest{Index: "i", ID: "shared"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["_version"] != writers*perWriter {
		t.Errorf("version = %v, want %d", got["_version"], writers*perWriter)
	}
}
