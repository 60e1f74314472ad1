package expansion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
)

func TestCacheRoundTripIsolatesSlices(t *testing.T) {
	cache := New(4, time.Minute)
	cache.Add("playa", domain.ExpandedTermSet{
		Direct:  []string{"sandalias"},
		Related: []string{"verano"},
		Outcome: domain.ExpansionParsed,
	})

	got, ok := cache.Get("playa")
	require.True(t, ok)
	got.Direct[0] = "mutated"

	again, ok := cache.Get("playa")
	require.True(t, ok)
	assert.Equal(t, []string{"sandalias"}, again.Direct)
	assert.Equal(t, domain.ExpansionParsed, again.Outcome)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := New(2, time.Minute)
	cache.Add("a", domain.ExpandedTermSet{})
	cache.Add("b", domain.ExpandedTermSet{})
	_, _ = cache.Get("a")
	cache.Add("c", domain.ExpandedTermSet{})

	_, okA := cache.Get("a")
	_, okB := cache.Get("b")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.Equal(t, 2, cache.Len())
}

func TestCacheExpiresEntries(t *testing.T) {
	cache := New(2, 20*time.Millisecond)
	cache.Add("gym", domain.ExpandedTermSet{Direct: []string{"leggings"}})

	assert.Eventually(t, func() bool {
		_, ok := cache.Get("gym")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNewAppliesDefaults(t *testing.T) {
	cache := New(0, 0)
	cache.Add("x", domain.ExpandedTermSet{})
	_, ok := cache.Get("x")
	assert.True(t, ok)
}
