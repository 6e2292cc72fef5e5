package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/handlers"
)

type countingRecorder struct {
	received, processed, errors int
	custom                      map[string]int
}

func (c *countingRecorder) RecordReceived()                { c.received++ }
func (c *countingRecorder) RecordProcessed(time.Duration) { c.processed++ }
func (c *countingRecorder) RecordError()                   { c.errors++ }
func (c *countingRecorder) IncrementCustom(name string) {
	if c.custom == nil {
		c.custom = make(map[string]int)
	}
	c.custom[name]++
}

func newTestHandler(t *testing.T, rec handlers.MetricsRecorder, origins ...string) http.Handler {
	t.Helper()
	h := handlers.NewHandlers(nil, nil, nil, nil, handlers.WithMetrics(rec))
	return NewRouter(h, origins).Handler()
}

func do(handler http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	h := handlers.NewHandlers(nil, nil, nil, nil)
	r := NewRouter(h, nil)
	if r.router == nil {
		t.Fatal("NewRouter() router is nil")
	}
	if r.handlers != h {
		t.Error("NewRouter() handlers mismatch")
	}
	if len(r.origins) != 1 || r.origins[0] != "*" {
		t.Errorf("origins = %v, want [*]", r.origins)
	}
}

func TestRouter_Health(t *testing.T) {
	rec := &countingRecorder{}
	w := do(newTestHandler(t, rec), http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("health = %d %q", w.Code, w.Body.String())
	}
	if rec.received != 0 {
		t.Error("health checks should not be counted")
	}
}

func TestRouter_Routes(t *testing.T) {
	handler := newTestHandler(t, &countingRecorder{})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"classify", http.MethodPost, "/api/v1/documents/classify", `{"filenames":["boarding-pass.pdf"]}`, http.StatusOK},
		{"refresh without body", http.MethodPost, "/api/v1/alerts/refresh", "", http.StatusBadRequest},
		{"custom alert without body", http.MethodPost, "/api/v1/alerts/custom", "", http.StatusBadRequest},
		{"itinerary without body", http.MethodPost, "/api/v1/users/u1/itinerary", "", http.StatusBadRequest},
		{"metrics disabled", http.MethodGet, "/api/v1/services/metrics", "", http.StatusServiceUnavailable},
		{"unknown path", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/api/v1/alerts/refresh", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(handler, tt.method, tt.path, tt.body, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouter_PanicReturnsJSON(t *testing.T) {
	// A nil alert service panics on use.
	w := do(newTestHandler(t, &countingRecorder{}), http.MethodGet, "/api/v1/users/u1/alerts", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRouter_CORS(t *testing.T) {
	preflight := map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	}

	w := do(newTestHandler(t, &countingRecorder{}), http.MethodOptions, "/api/v1/alerts/refresh", "", preflight)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	w = do(newTestHandler(t, &countingRecorder{}, "https://other.example.com"), http.MethodOptions, "/api/v1/alerts/refresh", "", preflight)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	rec := &countingRecorder{}
	handler := newTestHandler(t, rec)

	do(handler, http.MethodPost, "/api/v1/documents/classify", `{"filenames":["visa.pdf"]}`, nil)
	do(handler, http.MethodPost, "/api/v1/alerts/refresh", "", nil)
	do(handler, http.MethodGet, "/api/v1/services/metrics", "", nil)

	if rec.received != 2 || rec.processed != 1 || rec.errors != 1 {
		t.Errorf("recorder = %+v", rec)
	}
	if rec.custom["http_POST"] != 2 {
		t.Errorf("http_POST = %d, want 2", rec.custom["http_POST"])
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer("8080", handlers.NewHandlers(nil, nil, nil, nil), nil)
	if srv.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", srv.Addr)
	}
	if srv.ReadTimeout != 15*time.Second || srv.WriteTimeout != 15*time.Second || srv.IdleTimeout != 60*time.Second {
		t.Errorf("timeouts = %v/%v/%v", srv.ReadTimeout, srv.WriteTimeout, srv.IdleTimeout)
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	handler := newTestHandler(t, &countingRecorder{})

	w := do(handler, http.MethodGet, "/health", "", nil)
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("generated X-Request-ID = %q, want a UUID", w.Header().Get("X-Request-ID"))
	}

	w = do(handler, http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "req-1"})
	if got := w.Header().Get("X-Request-ID"); got != "req-1" {
		t.Errorf("X-Request-ID = %q, want req-1", got)
	}
}
