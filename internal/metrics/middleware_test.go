package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/v1/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/abc", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/documents/{id}", "404"))
	if got < 1 {
		t.Errorf("http_requests_total = %v, want >= 1", got)
	}
}

func TestMiddleware_DefaultStatusOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fine"))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ok", http.NoBody))

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/ok", "200")); got < 1 {
		t.Errorf("http_requests_total = %v, want >= 1", got)
	}
}

func TestObserveStage(t *testing.T) {
	before := testutil.CollectAndCount(StageDuration)
	ObserveStage("observe_stage_test", time.Now().Add(-time.Millisecond))
	if after := testutil.CollectAndCount(StageDuration); after != before+1 {
		t.Errorf("series count = %d, want %d", after, before+1)
	}
}
