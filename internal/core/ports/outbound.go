package ports

import (
	"context"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
)

// TextOracle is the external language model, treated as an opaque
// prompt-to-text completion.
type TextOracle interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// ListingSearchStore is the read side used by the search pipeline. Results
// are ordered by created_at DESC, id ASC.
type ListingSearchStore interface {
	FindByTags(ctx context.Context, tags []string) ([]domain.Listing, error)
	FindByText(ctx context.Context, query string) ([]domain.Listing, error)
	FindByTitle(ctx context.Context, query string, limit int) ([]domain.Listing, error)
}

// ListingRepository reads listings and persists tag updates.
type ListingRepository interface {
	ListingSearchStore
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	ListIDs(ctx context.Context) ([]string, error)
	ListTagCounts(ctx context.Context) ([]domain.TagCount, error)
	UpdateTags(ctx context.Context, id string, tags []string) error
}

// ExpansionCache memoizes oracle expansions per normalized query.
type ExpansionCache interface {
	Get(query string) (domain.ExpandedTermSet, bool)
	Add(query string, terms domain.ExpandedTermSet)
}

// EnrichmentQueue publishes and consumes listing enrichment requests.
type EnrichmentQueue interface {
	PublishListingEnrichment(ctx context.Context, listingID string) error
	SubscribeListingEnrichment(ctx context.Context, handler func(context.Context, string) error) error
}

// SearchObserver receives per-search telemetry. Implementations must be
// safe for concurrent use.
type SearchObserver interface {
	ObserveExpansion(outcome string)
	ObserveSearch(outcome string, candidates, results int, durationSeconds float64)
}
