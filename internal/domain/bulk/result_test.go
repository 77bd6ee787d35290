package bulk

import (
	"errors"
	"net/http"
	"testing"

	"github.com/kailas-cloud/esmem/internal/domain"
)

func TestNewOK_Body(t *testing.T) {
	a := Action{Op: OpIndex, Index: "books", Type: "_doc", ID: "1"}
	r := NewOK(a, http.StatusCreated, ResultCreated, 1)

	if r.Failed() {
		t.Error("Failed() = true")
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v", r.Err())
	}
	item := r.Body()["index"].(map[string]any)
	if item["status"] != http.StatusCreated || item["result"] != ResultCreated || item["_version"] != 1 {
		t.Errorf("item = %v", item)
	}
	if _, ok := item["error"]; ok {
		t.Error("successful item carries error")
	}
}

func TestNewError_Body(t *testing.T) {
	a := Action{Op: OpCreate, Index: "books", Type: "_doc", ID: "1"}
	r := NewError(a, domain.NewVersionConflict("books", "1", 1))

	if !r.Failed() || r.Status() != http.StatusConflict {
		t.Fatalf("Failed() = %v, Status() = %d", r.Failed(), r.Status())
	}
	if !errors.Is(r.Err(), domain.ErrVersionConflict) {
		t.Errorf("Err() = %v", r.Err())
	}
	item := r.Body()["create"].(map[string]any)
	errBody := item["error"].(map[string]any)
	if errBody["type"] != domain.TypeVersionConflict {
		t.Errorf("error type = %v", errBody["type"])
	}
	if _, ok := item["result"]; ok {
		t.Error("failed item carries result")
	}
}

func TestNewError_PlainError(t *testing.T) {
	r := NewError(Action{Op: OpIndex}, errors.New("boom"))
	if r.Status() != http.StatusInternalServerError {
		t.Errorf("Status() = %d, want 500", r.Status())
	}
}
