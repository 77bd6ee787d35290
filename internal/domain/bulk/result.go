package bulk

import (
	"errors"

	"github.com/kailas-cloud/esmem/internal/domain"
)

// Outcome names reported in the "result" field of successful items.
const (
	ResultCreated = "created"
	ResultUpdated = "updated"
	ResultDeleted = "deleted"
)

// Result is the outcome of processing one bulk action.
type Result struct {
	action  Action
	status  int
	result  string
	version int
	err     *domain.StatusError
}

// NewOK creates a successful item result.
func NewOK(a Action, status int, result string, version int) Result {
	return Result{action: a, status: status, result: result, version: version}
}

// NewError creates a failed item result. Errors without a status report 500.
func NewError(a Action, err error) Result {
	var se *domain.StatusError
	if !errors.As(err, &se) {
		se = &domain.StatusError{
			Status: domain.StatusOf(err),
			Type:   domain.TypeInternalServerError,
			Reason: err.Error(),
		}
	}
	return Result{action: a, status: se.Status, err: se}
}

// Action returns the action this result answers.
func (r Result) Action() Action { return r.action }

// Status returns the item status code.
func (r Result) Status() int { return r.status }

// Result returns created, updated or deleted for successful items.
func (r Result) Result() string { return r.result }

// Version returns the document version after the action.
func (r Result) Version() int { return r.version }

// Err returns the item error, if any.
func (r Result) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Failed reports whether the item carries an error.
func (r Result) Failed() bool { return r.err != nil }

// Body renders the item as {op: {...}}. Every item has either "result" or "error".
func (r Result) Body() map[string]any {
	item := map[string]any{
		"_index": r.action.Index,
		"_type":  r.action.Type,
		"_id":    r.action.ID,
		"status": r.status,
	}
	if r.err != nil {
		item["error"] = r.err.Body()
	} else {
		item["result"] = r.result
		item["_version"] = r.version
	}
	return map[string]any{string(r.action.Op): item}
}

// Response is the outcome of a whole bulk call.
type Response struct {
	Took   int64
	Errors bool
	Items  []Result
}

// Body renders the response.
func (r Response) Body() map[string]any {
	items := make([]any, len(r.Items))
	for i, it := range r.Items {
		items[i] = it.Body()
	}
	return map[string]any{
		"took":   r.Took,
		"errors": r.Errors,
		"items":  items,
	}
}
