package usecase

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
)

// termParser reports ok when it could read the response, even if the arrays
// it found are empty.
type termParser func(cleaned string) (direct, related []string, ok bool)

type parseStrategy struct {
	outcome domain.ExpansionOutcome
	parse   termParser
}

// Ordered recovery chain. Defaulted is the implicit last step.
var expansionParseChain = []parseStrategy{
	{outcome: domain.ExpansionParsed, parse: parseTermsJSON},
	{outcome: domain.ExpansionRecovered, parse: extractTermsManually},
}

var (
	directArrayPattern  = regexp.MustCompile(`"direct"\s*:\s*\[(.*?)\]`)
	relatedArrayPattern = regexp.MustCompile(`"related"\s*:\s*\[(.*?)\]`)
	codeFenceReplacer   = strings.NewReplacer("```json", "", "```JSON", "", "```", "", "\n", "", "\r", "")
)

func parseExpansion(raw, query string) domain.ExpandedTermSet {
	cleaned := cleanOracleText(raw)
	for _, strategy := range expansionParseChain {
		direct, related, ok := strategy.parse(cleaned)
		if !ok {
			continue
		}
		direct = textnorm.Terms(direct)
		related = textnorm.Terms(related)
		if len(direct) == 0 && len(related) == 0 {
			break
		}
		return domain.ExpandedTermSet{
			Direct:  direct,
			Related: related,
			Outcome: strategy.outcome,
		}
	}
	return defaultTermSet(query)
}

func defaultTermSet(query string) domain.ExpandedTermSet {
	return domain.ExpandedTermSet{
		Direct:  []string{textnorm.Term(query)},
		Related: []string{},
		Outcome: domain.ExpansionDefaulted,
	}
}

func cleanOracleText(raw string) string {
	return strings.TrimSpace(codeFenceReplacer.Replace(raw))
}

func parseTermsJSON(cleaned string) ([]string, []string, bool) {
	var payload struct {
		Direct  []string `json:"direct"`
		Related []string `json:"related"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(cleaned)), &payload); err != nil {
		return nil, nil, false
	}
	return payload.Direct, payload.Related, true
}

func extractTermsManually(cleaned string) ([]string, []string, bool) {
	var direct, related []string
	found := false
	if m := directArrayPattern.FindStringSubmatch(cleaned); m != nil {
		direct = splitArrayItems(m[1])
		found = true
	}
	if m := relatedArrayPattern.FindStringSubmatch(cleaned); m != nil {
		related = splitArrayItems(m[1])
		found = true
	}
	return direct, related, found
}

func splitArrayItems(body string) []string {
	parts := strings.Split(body, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.Trim(strings.TrimSpace(part), `"'`)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
