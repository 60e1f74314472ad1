package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
)

const (
	degradedSearchLimit = 20

	searchOutcomeNormal   = "normal"
	searchOutcomeDegraded = "degraded"
	searchOutcomeFailed   = "failed"

	expansionOutcomeFailed = "failed"
	expansionOutcomeCached = "cached"
)

// SearchUseCase runs expand, retrieve and score, and falls back to a plain
// title substring search when expansion or retrieval fails.
type SearchUseCase struct {
	expander  *TermExpander
	retriever *CandidateRetriever
	scorer    Scorer
	store     ports.ListingSearchStore
	observer  ports.SearchObserver
}

func NewSearchUseCase(
	expander *TermExpander,
	retriever *CandidateRetriever,
	scorer Scorer,
	store ports.ListingSearchStore,
	observer ports.SearchObserver,
) *SearchUseCase {
	if observer == nil {
		observer = noopSearchObserver{}
	}
	return &SearchUseCase{
		expander:  expander,
		retriever: retriever,
		scorer:    scorer,
		store:     store,
		observer:  observer,
	}
}

// SearchProducts never panics and never returns a Go error. The only
// unsuccessful outcomes are an empty query and a failed degraded search.
func (uc *SearchUseCase) SearchProducts(ctx context.Context, query string) (resp domain.SearchResponse) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("search_panic", "query", query, "panic", fmt.Sprint(r))
			resp = failedResponse(fmt.Sprintf("search failed: %v", r))
			uc.observer.ObserveSearch(searchOutcomeFailed, 0, 0, time.Since(started).Seconds())
		}
	}()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return failedResponse("query is required")
	}

	scored, terms, candidates, err := uc.search(ctx, trimmed)
	if err == nil {
		uc.observer.ObserveSearch(searchOutcomeNormal, candidates, len(scored), time.Since(started).Seconds())
		slog.Info("search_completed",
			"query", trimmed,
			"direct", terms.Direct,
			"related", terms.Related,
			"candidates", candidates,
			"results", len(scored),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return domain.SearchResponse{
			Success:  true,
			Products: scored,
			AITags:   domain.AITags{Direct: terms.Direct, Related: terms.Related},
		}
	}

	slog.Warn("search_degraded", "query", trimmed, "reason", err.Error())
	products, degradedErr := uc.degrade(ctx, trimmed)
	if degradedErr != nil {
		uc.observer.ObserveSearch(searchOutcomeFailed, 0, 0, time.Since(started).Seconds())
		slog.Error("search_failed", "query", trimmed, "error", degradedErr.Error())
		return failedResponse(degradedErr.Error())
	}

	uc.observer.ObserveSearch(searchOutcomeDegraded, len(products), len(products), time.Since(started).Seconds())
	return domain.SearchResponse{
		Success:  true,
		Products: products,
		AITags:   domain.AITags{Direct: []string{trimmed}, Related: []string{}},
		Degraded: true,
	}
}

// Search runs the full pipeline without fallback. Errors are of kind
// ErrInvalidInput, ErrExpansionFailed or ErrRetrievalFailed.
func (uc *SearchUseCase) Search(ctx context.Context, query string) ([]domain.ScoredListing, domain.ExpandedTermSet, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, domain.ExpandedTermSet{}, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("query is required"))
	}
	scored, terms, _, err := uc.search(ctx, trimmed)
	return scored, terms, err
}

func (uc *SearchUseCase) search(ctx context.Context, query string) ([]domain.ScoredListing, domain.ExpandedTermSet, int, error) {
	terms, err := uc.expander.Expand(ctx, query)
	if err != nil {
		uc.observer.ObserveExpansion(expansionOutcomeFailed)
		return nil, domain.ExpandedTermSet{}, 0, err
	}
	if terms.Cached {
		uc.observer.ObserveExpansion(expansionOutcomeCached)
	} else {
		uc.observer.ObserveExpansion(string(terms.Outcome))
	}

	candidates, err := uc.retriever.Retrieve(ctx, terms.Pool, query)
	if err != nil {
		return nil, terms, 0, err
	}

	return uc.scorer.Score(candidates, terms.Direct, terms.Related, query), terms, len(candidates), nil
}

func (uc *SearchUseCase) degrade(ctx context.Context, query string) ([]domain.ScoredListing, error) {
	listings, err := uc.store.FindByTitle(ctx, query, degradedSearchLimit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDegradedSearchFailed, "degraded title search", err)
	}
	if len(listings) > degradedSearchLimit {
		listings = listings[:degradedSearchLimit]
	}
	products := make([]domain.ScoredListing, 0, len(listings))
	for _, listing := range listings {
		products = append(products, domain.ScoredListing{Listing: listing})
	}
	return products, nil
}

func failedResponse(message string) domain.SearchResponse {
	return domain.SearchResponse{
		Success:  false,
		Products: []domain.ScoredListing{},
		AITags:   domain.AITags{Direct: []string{}, Related: []string{}},
		Error:    message,
	}
}

type noopSearchObserver struct{}

func (noopSearchObserver) ObserveExpansion(string)                  {}
func (noopSearchObserver) ObserveSearch(string, int, int, float64) {}
