package chi

import (
	"net/http"
	"net/http/httptest"
)

// Transport is an http.RoundTripper that serves requests with a handler in the
// calling goroutine, so a client can talk to the engine without a listener.
type Transport struct {
	handler http.Handler
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport creates a Transport serving requests with h.
func NewTransport(h http.Handler) *Transport {
	return &Transport{handler: h}
}

// RoundTrip serves req and returns the recorded response.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	in := req.Clone(req.Context())
	if in.Body == nil {
		in.Body = http.NoBody
	}
	in.RequestURI = req.URL.RequestURI()
	if in.RemoteAddr == "" {
		in.RemoteAddr = "in-process"
	}
	defer func() { _ = in.Body.Close() }()

	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, in)

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
