package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
)

func TestCandidateRetrieverUnionsAndDeduplicates(t *testing.T) {
	store := &listingStoreFake{listings: []domain.Listing{
		listingAt("1", "Sandalias de playa", 0, "sandalias"),
		listingAt("2", "Bikini rojo", 0, "bikini"),
		listingAt("3", "Toalla de playa", 0, "toalla"),
		listingAt("4", "Chamarra", 0, "invierno"),
	}}
	retriever := NewCandidateRetriever(store)

	got, err := retriever.Retrieve(context.Background(), []string{"Sandalias", "bikini"}, "playa")
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, listing := range got {
		ids = append(ids, listing.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	require.Len(t, store.tagQueries, 1)
	assert.Equal(t, []string{"sandalias", "bikini"}, store.tagQueries[0])
	assert.Equal(t, []string{"playa"}, store.textQueries)
}

func TestCandidateRetrieverEmptyResultIsNotAnError(t *testing.T) {
	retriever := NewCandidateRetriever(&listingStoreFake{})

	got, err := retriever.Retrieve(context.Background(), []string{"vestido"}, "vestido")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCandidateRetrieverSkipsEmptyInputs(t *testing.T) {
	store := &listingStoreFake{}
	retriever := NewCandidateRetriever(store)

	_, err := retriever.Retrieve(context.Background(), []string{" ", ""}, "   ")
	require.NoError(t, err)
	assert.Empty(t, store.tagQueries)
	assert.Empty(t, store.textQueries)
}

func TestCandidateRetrieverLookupFailure(t *testing.T) {
	cases := []struct {
		name  string
		store *listingStoreFake
	}{
		{name: "tag lookup", store: &listingStoreFake{tagErr: errors.New("connection reset")}},
		{name: "text lookup", store: &listingStoreFake{textErr: errors.New("connection reset")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCandidateRetriever(tc.store).Retrieve(context.Background(), []string{"vestido"}, "vestido")
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.ErrRetrievalFailed))
		})
	}
}

func TestListingSetUnionIsOrderIndependentAsASet(t *testing.T) {
	a := newListingSet([]domain.Listing{{ID: "1"}, {ID: "2"}})
	b := newListingSet([]domain.Listing{{ID: "2"}, {ID: "3"}, {ID: "3"}})

	ab := a.union(b).listings()
	ba := b.union(a).listings()
	assert.Len(t, ab, 3)
	assert.ElementsMatch(t, ab, ba)
}
