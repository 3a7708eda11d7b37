package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/search/text", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodPost, "/search/text", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/search/text", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_UsesRoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/image/{idx}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/image/0", "/image/1", "/image/42"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
	}

	// All slots collapse into one series under the route pattern.
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/image/{idx}", "200"))
	if val < 3 {
		t.Errorf("expected 3 requests under /image/{idx}, got %f", val)
	}
}

func TestMiddleware_CapturesErrorStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/boom", "503"))
	if val < 1 {
		t.Errorf("expected requests_total with status 503 >= 1, got %f", val)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register() // second call must not panic
}
