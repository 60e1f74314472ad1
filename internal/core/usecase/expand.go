package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
	"github.com/kirillkom/bazaar-search/internal/core/vocabulary"
)

const defaultOracleTimeout = 4 * time.Second

type ExpanderOptions struct {
	OracleTimeout         time.Duration
	BidirectionalSynonyms bool
}

// TermExpander turns a raw query into direct/related terms using the oracle,
// then widens them with the synonym table into a retrieval pool.
type TermExpander struct {
	oracle        ports.TextOracle
	vocab         *vocabulary.Vocabulary
	cache         ports.ExpansionCache
	timeout       time.Duration
	bidirectional bool
}

func NewTermExpander(
	oracle ports.TextOracle,
	vocab *vocabulary.Vocabulary,
	cache ports.ExpansionCache,
	opts ExpanderOptions,
) *TermExpander {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = defaultOracleTimeout
	}
	return &TermExpander{
		oracle:        oracle,
		vocab:         vocab,
		cache:         cache,
		timeout:       opts.OracleTimeout,
		bidirectional: opts.BidirectionalSynonyms,
	}
}

// Expand returns an error of kind ErrExpansionFailed only when the oracle
// call itself fails. Unparseable responses resolve to a defaulted term set.
func (e *TermExpander) Expand(ctx context.Context, query string) (domain.ExpandedTermSet, error) {
	key := textnorm.Term(query)
	if key == "" {
		return domain.ExpandedTermSet{}, domain.WrapError(domain.ErrInvalidInput, "expand query", fmt.Errorf("query is empty"))
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			cached.Cached = true
			return cached, nil
		}
	}

	raw, err := e.askOracle(ctx, query)
	if err != nil {
		return domain.ExpandedTermSet{}, domain.WrapError(domain.ErrExpansionFailed, "expand query", err)
	}

	terms := parseExpansion(raw, query)
	terms.Pool = e.expandPool(terms.Direct, terms.Related)
	slog.Debug("expansion_outcome",
		"outcome", string(terms.Outcome),
		"direct", terms.Direct,
		"related", terms.Related,
		"pool_size", len(terms.Pool),
	)

	if e.cache != nil && terms.Outcome != domain.ExpansionDefaulted {
		e.cache.Add(key, terms)
	}
	return terms, nil
}

func (e *TermExpander) askOracle(ctx context.Context, query string) (string, error) {
	if e.oracle == nil {
		return "", fmt.Errorf("oracle is not configured")
	}
	oracleCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.oracle.GenerateJSON(oracleCtx, buildExpansionPrompt(query))
	if err != nil {
		return "", err
	}
	return raw, nil
}

// expandPool keeps direct and related first, then appends synonyms of each.
func (e *TermExpander) expandPool(direct, related []string) []string {
	base := make([]string, 0, len(direct)+len(related))
	base = append(base, direct...)
	base = append(base, related...)

	pool := make([]string, 0, len(base)*2)
	pool = append(pool, base...)
	for _, term := range base {
		pool = append(pool, e.vocab.Expand(term, e.bidirectional)...)
	}
	return textnorm.Terms(pool)
}

func buildExpansionPrompt(query string) string {
	query = strings.ReplaceAll(strings.TrimSpace(query), `"`, `'`)
	return fmt.Sprintf(`Eres un experto en moda. El usuario busca: "%s"

Genera terminos relacionados para buscar productos de moda de segunda mano.

EJEMPLOS:
- "playa" -> {"direct": ["sandalias", "chancletas", "lentes de sol", "gafas de sol", "traje de bano", "bikini", "shorts", "pareo"], "related": ["verano", "casual", "resort", "tropical", "playera", "comodo"]}
- "gym" -> {"direct": ["leggings", "deportiva", "sneakers", "sudadera", "shorts deportivos"], "related": ["fitness", "atletico", "comodo", "transpirable"]}
- "fiesta" -> {"direct": ["vestido", "tacones", "clutch", "elegante"], "related": ["noche", "formal", "brillo", "sexy"]}

IMPORTANTE:
- En "direct" pon 8-12 PRENDAS ESPECIFICAS que alguien usaria en ese contexto
- En "related" pon 5-8 ADJETIVOS o CONTEXTOS
- Todo en espanol y minusculas
- Sin tildes ni caracteres especiales

Responde UNICAMENTE con JSON valido (sin markdown, sin explicaciones):
{"direct": ["palabra1", "palabra2"], "related": ["contexto1", "contexto2"]}`, query)
}
