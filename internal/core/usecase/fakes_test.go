package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
)

type oracleFake struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (f *oracleFake) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *oracleFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// hangingOracle never answers and returns only when its context ends.
type hangingOracle struct{}

func (hangingOracle) GenerateJSON(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// listingStoreFake evaluates the store contracts over an in-memory slice.
type listingStoreFake struct {
	mu        sync.Mutex
	listings  []domain.Listing
	tagErr    error
	textErr   error
	titleErr  error
	getErr    error
	updateErr error

	tagQueries  [][]string
	textQueries []string
	titleLimit  int
	updated     map[string][]string
}

func (f *listingStoreFake) FindByTags(_ context.Context, tags []string) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagQueries = append(f.tagQueries, tags)
	if f.tagErr != nil {
		return nil, f.tagErr
	}
	want := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		want[textnorm.Term(tag)] = struct{}{}
	}
	var out []domain.Listing
	for _, listing := range f.listings {
		for _, tag := range listing.Tags {
			if _, ok := want[textnorm.Term(tag)]; ok {
				out = append(out, listing)
				break
			}
		}
	}
	return out, nil
}

func (f *listingStoreFake) FindByText(_ context.Context, query string) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textQueries = append(f.textQueries, query)
	if f.textErr != nil {
		return nil, f.textErr
	}
	needle := strings.ToLower(query)
	var out []domain.Listing
	for _, listing := range f.listings {
		if strings.Contains(strings.ToLower(listing.Title), needle) ||
			strings.Contains(strings.ToLower(listing.Description), needle) {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (f *listingStoreFake) FindByTitle(_ context.Context, query string, limit int) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titleLimit = limit
	if f.titleErr != nil {
		return nil, f.titleErr
	}
	needle := strings.ToLower(query)
	var out []domain.Listing
	for _, listing := range f.listings {
		if strings.Contains(strings.ToLower(listing.Title), needle) {
			out = append(out, listing)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *listingStoreFake) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, listing := range f.listings {
		if listing.ID == id {
			found := listing
			return &found, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (f *listingStoreFake) ListIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.listings))
	for _, listing := range f.listings {
		ids = append(ids, listing.ID)
	}
	return ids, nil
}

func (f *listingStoreFake) ListTagCounts(context.Context) ([]domain.TagCount, error) {
	return nil, nil
}

func (f *listingStoreFake) UpdateTags(_ context.Context, id string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = make(map[string][]string)
	}
	f.updated[id] = tags
	return nil
}

type expansionCacheFake struct {
	entries map[string]domain.ExpandedTermSet
}

func newExpansionCacheFake() *expansionCacheFake {
	return &expansionCacheFake{entries: make(map[string]domain.ExpandedTermSet)}
}

func (f *expansionCacheFake) Get(query string) (domain.ExpandedTermSet, bool) {
	terms, ok := f.entries[query]
	return terms, ok
}

func (f *expansionCacheFake) Add(query string, terms domain.ExpandedTermSet) {
	f.entries[query] = terms
}

type observerFake struct {
	mu         sync.Mutex
	expansions []string
	searches   []string
}

func (f *observerFake) ObserveExpansion(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expansions = append(f.expansions, outcome)
}

func (f *observerFake) ObserveSearch(outcome string, _, _ int, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, outcome)
}

type enrichmentQueueFake struct {
	published []string
	err       error
}

func (f *enrichmentQueueFake) PublishListingEnrichment(_ context.Context, listingID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, listingID)
	return nil
}

func (f *enrichmentQueueFake) SubscribeListingEnrichment(context.Context, func(context.Context, string) error) error {
	return nil
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func listingAt(id, title string, age time.Duration, tags ...string) domain.Listing {
	return domain.Listing{
		ID:        id,
		Title:     title,
		Tags:      tags,
		Price:     100,
		CreatedAt: baseTime.Add(-age),
	}
}
