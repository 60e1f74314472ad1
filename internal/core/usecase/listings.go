package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
)

type ListingQueryUseCase struct {
	repo ports.ListingRepository
}

func NewListingQueryUseCase(repo ports.ListingRepository) *ListingQueryUseCase {
	return &ListingQueryUseCase{repo: repo}
}

func (uc *ListingQueryUseCase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get listing", errors.New("listing id is required"))
	}
	listing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch listing by id: %w", err)
	}
	return listing, nil
}

// TagInventory lists every distinct tag sorted by name.
func (uc *ListingQueryUseCase) TagInventory(ctx context.Context) ([]domain.TagCount, error) {
	counts, err := uc.repo.ListTagCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tag counts: %w", err)
	}
	if counts == nil {
		counts = []domain.TagCount{}
	}
	return counts, nil
}
