package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
)

// CandidateRetriever runs the tag-overlap and text lookups independently and
// unions their results by listing id.
type CandidateRetriever struct {
	store ports.ListingSearchStore
}

func NewCandidateRetriever(store ports.ListingSearchStore) *CandidateRetriever {
	return &CandidateRetriever{store: store}
}

func (r *CandidateRetriever) Retrieve(ctx context.Context, tags []string, rawQuery string) ([]domain.Listing, error) {
	var byTags, byText listingSet

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		set, err := r.lookupTags(groupCtx, tags)
		if err != nil {
			return fmt.Errorf("tag overlap lookup: %w", err)
		}
		byTags = set
		return nil
	})
	group.Go(func() error {
		set, err := r.lookupText(groupCtx, rawQuery)
		if err != nil {
			return fmt.Errorf("text lookup: %w", err)
		}
		byText = set
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalFailed, "retrieve candidates", err)
	}

	return byTags.union(byText).listings(), nil
}

func (r *CandidateRetriever) lookupTags(ctx context.Context, tags []string) (listingSet, error) {
	normalized := textnorm.Terms(tags)
	if len(normalized) == 0 {
		return newListingSet(nil), nil
	}
	listings, err := r.store.FindByTags(ctx, normalized)
	if err != nil {
		return listingSet{}, err
	}
	return newListingSet(listings), nil
}

func (r *CandidateRetriever) lookupText(ctx context.Context, rawQuery string) (listingSet, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return newListingSet(nil), nil
	}
	listings, err := r.store.FindByText(ctx, query)
	if err != nil {
		return listingSet{}, err
	}
	return newListingSet(listings), nil
}

// listingSet is keyed by listing id and remembers first-insertion order.
type listingSet struct {
	order []string
	byID  map[string]domain.Listing
}

func newListingSet(listings []domain.Listing) listingSet {
	set := listingSet{
		order: make([]string, 0, len(listings)),
		byID:  make(map[string]domain.Listing, len(listings)),
	}
	for _, listing := range listings {
		set.add(listing)
	}
	return set
}

func (s *listingSet) add(listing domain.Listing) {
	if _, ok := s.byID[listing.ID]; ok {
		return
	}
	s.byID[listing.ID] = listing
	s.order = append(s.order, listing.ID)
}

func (s listingSet) union(other listingSet) listingSet {
	out := newListingSet(nil)
	for _, id := range s.order {
		out.add(s.byID[id])
	}
	for _, id := range other.order {
		out.add(other.byID[id])
	}
	return out
}

func (s listingSet) listings() []domain.Listing {
	out := make([]domain.Listing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
