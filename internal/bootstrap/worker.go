package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/bazaar-search/internal/core/ports"
	"github.com/kirillkom/bazaar-search/internal/observability/metrics"
)

// EnrichmentHandler consumes queued listing ids one token at a time so the
// oracle is never called faster than the configured rate.
type EnrichmentHandler struct {
	service  string
	enricher ports.TagEnricher
	limiter  *rate.Limiter
	metrics  *metrics.WorkerMetrics
	timeout  time.Duration
}

func NewEnrichmentHandler(
	service string,
	enricher ports.TagEnricher,
	rps float64,
	workerMetrics *metrics.WorkerMetrics,
	timeout time.Duration,
) *EnrichmentHandler {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &EnrichmentHandler{
		service:  service,
		enricher: enricher,
		limiter:  rate.NewLimiter(limit, 1),
		metrics:  workerMetrics,
		timeout:  timeout,
	}
}

func (h *EnrichmentHandler) Handle(ctx context.Context, listingID string) error {
	waitStart := time.Now()
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.ObserveRateLimiterWait(h.service, time.Since(waitStart))
		h.metrics.StartEnrichment()
	}

	enrichCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	result, err := h.enricher.EnrichTags(enrichCtx, listingID)
	source := ""
	if result != nil {
		source = result.Source
	}
	if h.metrics != nil {
		h.metrics.FinishEnrichment(h.service, source, time.Since(start), err)
	}
	if err != nil {
		slog.Error("listing_enrichment_failed", "listing_id", listingID, "error", err)
		return err
	}
	return nil
}
