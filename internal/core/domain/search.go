package domain

// ExpansionOutcome tags how an ExpandedTermSet was obtained.
type ExpansionOutcome string

const (
	ExpansionParsed    ExpansionOutcome = "parsed"
	ExpansionRecovered ExpansionOutcome = "recovered"
	ExpansionDefaulted ExpansionOutcome = "defaulted"
)

// ExpandedTermSet is created per search request and discarded after scoring.
// Pool holds direct, related and their synonyms; it feeds retrieval only.
type ExpandedTermSet struct {
	Direct  []string         `json:"direct"`
	Related []string         `json:"related"`
	Pool    []string         `json:"-"`
	Outcome ExpansionOutcome `json:"outcome"`
	Cached  bool             `json:"-"`
}

type AITags struct {
	Direct  []string `json:"direct"`
	Related []string `json:"related"`
}

// SearchResponse is the caller-facing search result. Failures are reported
// through Success/Error, never as a Go error.
type SearchResponse struct {
	Success  bool            `json:"success"`
	Products []ScoredListing `json:"products"`
	AITags   AITags          `json:"aiTags"`
	Degraded bool            `json:"degraded"`
	Error    string          `json:"error,omitempty"`
}
