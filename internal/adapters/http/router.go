package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kirillkom/bazaar-search/internal/config"
	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
	"github.com/kirillkom/bazaar-search/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 64 << 10
)

type Router struct {
	cfg       config.Config
	searcher  ports.ProductSearcher
	listings  ports.ListingReader
	enricher  ports.TagEnricher
	requester ports.EnrichmentRequester
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	searcher ports.ProductSearcher,
	listings ports.ListingReader,
	enricher ports.TagEnricher,
	requester ports.EnrichmentRequester,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		searcher:  searcher,
		listings:  listings,
		enricher:  enricher,
		requester: requester,
		metrics:   httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	limiter := newClientRateLimiter(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(func(next http.Handler) http.Handler {
			return rateLimitMiddleware(next, limiter, rt.onRateLimited)
		})
		v1.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
		})

		v1.Get("/search", rt.searchGet)
		v1.Post("/search", rt.searchPost)
		v1.Get("/tags", rt.tagInventory)
		v1.Post("/listings/enrich", rt.enrichBatch)
		v1.Get("/listings/{id}", rt.getListing)
		v1.Post("/listings/{id}/enrich", rt.enrichListing)
	})
	return r
}

func (rt *Router) allowedOrigins() []string {
	if len(rt.cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return rt.cfg.CORSAllowedOrigins
}

func (rt *Router) onRateLimited(r *http.Request) {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(serviceName, r)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchGet(w http.ResponseWriter, r *http.Request) {
	rt.runSearch(w, r, r.URL.Query().Get("q"))
}

func (rt *Router) searchPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeSearchFailure(w, http.StatusBadRequest, "invalid json")
		return
	}
	rt.runSearch(w, r, req.Query)
}

func (rt *Router) runSearch(w http.ResponseWriter, r *http.Request, query string) {
	if strings.TrimSpace(query) == "" {
		writeSearchFailure(w, http.StatusBadRequest, "query is required")
		return
	}
	writeJSON(w, http.StatusOK, rt.searcher.SearchProducts(r.Context(), query))
}

func (rt *Router) getListing(w http.ResponseWriter, r *http.Request) {
	listing, err := rt.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (rt *Router) tagInventory(w http.ResponseWriter, r *http.Request) {
	tags, err := rt.listings.TagInventory(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// enrichListing queues one listing, or enriches it inline with ?sync=true.
func (rt *Router) enrichListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if r.URL.Query().Get("sync") == "true" {
		result, err := rt.enricher.EnrichTags(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	queued, err := rt.requester.RequestEnrichment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

func (rt *Router) enrichBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
		All bool     `json:"all"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	var (
		queued int
		err    error
	)
	if req.All {
		queued, err = rt.requester.RequestEnrichmentAll(r.Context())
	} else {
		queued, err = rt.requester.RequestEnrichment(r.Context(), req.IDs...)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

func decodeJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeSearchFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, domain.SearchResponse{
		Success:  false,
		Products: []domain.ScoredListing{},
		AITags:   domain.AITags{Direct: []string{}, Related: []string{}},
		Error:    message,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
