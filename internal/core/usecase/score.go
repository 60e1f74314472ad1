package usecase

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
)

const (
	scoreDirectExact    = 10
	scoreDirectPartial  = 8
	scoreRelatedExact   = 3
	scoreRelatedPartial = 2
	scoreTitleQuery     = 5
)

// Scorer ranks candidates from tag and title signals. A zero MinPartialLen
// keeps the symmetric substring rule unrestricted.
type Scorer struct {
	MinPartialLen int
}

// Score orders by score desc, then created_at desc, then id asc. Zero-score
// listings are dropped only when at least one listing scored above zero.
func (s Scorer) Score(listings []domain.Listing, direct, related []string, rawQuery string) []domain.ScoredListing {
	directTerms := textnorm.Terms(direct)
	relatedTerms := textnorm.Terms(related)
	query := strings.ToLower(strings.TrimSpace(rawQuery))

	scored := make([]domain.ScoredListing, 0, len(listings))
	hasPositive := false
	for _, listing := range listings {
		score := s.scoreListing(listing, directTerms, relatedTerms, query)
		if score > 0 {
			hasPositive = true
		}
		scored = append(scored, domain.ScoredListing{Listing: listing, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].CreatedAt.Equal(scored[j].CreatedAt) {
			return scored[i].CreatedAt.After(scored[j].CreatedAt)
		}
		return scored[i].ID < scored[j].ID
	})

	if !hasPositive {
		return scored
	}
	out := scored[:0]
	for _, item := range scored {
		if item.Score > 0 {
			out = append(out, item)
		}
	}
	return out
}

func (s Scorer) scoreListing(listing domain.Listing, direct, related []string, query string) int {
	tags := textnorm.Terms(listing.Tags)
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[tag] = struct{}{}
	}

	score := 0
	for _, term := range direct {
		switch {
		case hasTag(tagSet, term):
			score += scoreDirectExact
		case s.partialMatch(tags, term):
			score += scoreDirectPartial
		}
	}
	for _, term := range related {
		switch {
		case hasTag(tagSet, term):
			score += scoreRelatedExact
		case s.partialMatch(tags, term):
			score += scoreRelatedPartial
		}
	}
	if query != "" && strings.Contains(strings.ToLower(listing.Title), query) {
		score += scoreTitleQuery
	}
	return score
}

func hasTag(tagSet map[string]struct{}, term string) bool {
	_, ok := tagSet[term]
	return ok
}

// partialMatch: a tag contains the term or the term contains a tag. The
// contained side must reach MinPartialLen runes when the guard is on.
func (s Scorer) partialMatch(tags []string, term string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, term) && s.longEnough(term) {
			return true
		}
		if strings.Contains(term, tag) && s.longEnough(tag) {
			return true
		}
	}
	return false
}

func (s Scorer) longEnough(fragment string) bool {
	return s.MinPartialLen <= 0 || utf8.RuneCountInString(fragment) >= s.MinPartialLen
}
