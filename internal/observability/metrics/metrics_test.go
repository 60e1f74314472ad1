package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler { return m.Middleware("api", next) })
	router.Get("/v1/listings/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/listings/"+id, nil))
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/listings/{id}", "404"))
	if got != 3 {
		t.Fatalf("expected 3 requests under route pattern, got %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/listings/abc":        "/v1/listings/{id}",
		"/v1/listings/abc/enrich": "/v1/listings/{id}/enrich",
		"/v1/listings/enrich":     "/v1/listings/enrich",
		"/v1/search":              "/v1/search",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearchMetricsSharesServerRegistry(t *testing.T) {
	server := NewHTTPServerMetrics("api")
	search := NewSearchMetrics(server.Registerer(), "api")

	search.ObserveExpansion("parsed")
	search.ObserveExpansion("")
	search.ObserveSearch("degraded", 4, 2, 0.3)
	search.RecordBreakerTransition("ollama.generate", "closed", "open")

	if got := testutil.ToFloat64(search.expansionsTotal.WithLabelValues("api", "unknown")); got != 1 {
		t.Fatalf("expected unknown outcome counter, got %v", got)
	}
	if got := testutil.ToFloat64(search.searchesTotal.WithLabelValues("api", "degraded")); got != 1 {
		t.Fatalf("expected degraded counter, got %v", got)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"bazaar_search_requests_total", "bazaar_oracle_breaker_transitions_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in exposition", name)
		}
	}
}

func TestWorkerMetricsFinishEnrichment(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartEnrichment()
	m.FinishEnrichment("worker", "oracle", 10*time.Millisecond, nil)
	m.StartEnrichment()
	m.FinishEnrichment("worker", "", time.Millisecond, errors.New("boom"))
	m.ObserveRateLimiterWait("worker", -time.Second)

	if got := testutil.ToFloat64(m.enrichTotal.WithLabelValues("worker", "success", "oracle")); got != 1 {
		t.Fatalf("expected one success, got %v", got)
	}
	if got := testutil.ToFloat64(m.enrichTotal.WithLabelValues("worker", "error", "none")); got != 1 {
		t.Fatalf("expected one error, got %v", got)
	}
	if got := testutil.ToFloat64(m.enrichInFlight); got != 0 {
		t.Fatalf("expected no in-flight enrichments, got %v", got)
	}
}
