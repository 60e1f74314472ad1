package ports

import (
	"context"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
)

// ProductSearcher is the caller-facing search contract. It never returns a
// Go error: failures are reported inside the response.
type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string) domain.SearchResponse
}

// ListingReader is the inbound read model for listing detail and tag inventory.
type ListingReader interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	TagInventory(ctx context.Context) ([]domain.TagCount, error)
}

// TagEnricher regenerates tags for a single listing.
type TagEnricher interface {
	EnrichTags(ctx context.Context, listingID string) (*domain.TagEnrichment, error)
}

// EnrichmentRequester schedules asynchronous tag enrichment.
type EnrichmentRequester interface {
	RequestEnrichment(ctx context.Context, listingIDs ...string) (int, error)
	RequestEnrichmentAll(ctx context.Context) (int, error)
}
