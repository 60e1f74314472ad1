package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
	"github.com/kirillkom/bazaar-search/internal/core/vocabulary"
)

const defaultEnrichTimeout = 20 * time.Second

// TagEnrichmentUseCase regenerates listing tags with the oracle and queues
// bulk enrichment. It is the only write path over listings.
type TagEnrichmentUseCase struct {
	repo    ports.ListingRepository
	oracle  ports.TextOracle
	vocab   *vocabulary.Vocabulary
	queue   ports.EnrichmentQueue
	timeout time.Duration
}

func NewTagEnrichmentUseCase(
	repo ports.ListingRepository,
	oracle ports.TextOracle,
	vocab *vocabulary.Vocabulary,
	queue ports.EnrichmentQueue,
	timeout time.Duration,
) *TagEnrichmentUseCase {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if timeout <= 0 {
		timeout = defaultEnrichTimeout
	}
	return &TagEnrichmentUseCase{
		repo:    repo,
		oracle:  oracle,
		vocab:   vocab,
		queue:   queue,
		timeout: timeout,
	}
}

func (uc *TagEnrichmentUseCase) EnrichTags(ctx context.Context, listingID string) (*domain.TagEnrichment, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "enrich tags", errors.New("listing id is required"))
	}

	listing, err := uc.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("fetch listing by id: %w", err)
	}

	generated, source := uc.generateTags(ctx, listing)
	merged := mergeTags(listing.Tags, generated)

	if err := uc.repo.UpdateTags(ctx, listing.ID, merged); err != nil {
		return nil, fmt.Errorf("update listing tags: %w", err)
	}

	slog.Info("listing_tags_enriched",
		"listing_id", listing.ID,
		"source", source,
		"previous", len(listing.Tags),
		"tags", len(merged),
	)
	return &domain.TagEnrichment{
		ListingID: listing.ID,
		Previous:  cloneTags(listing.Tags),
		Tags:      merged,
		Source:    source,
	}, nil
}

// RequestEnrichment publishes one message per distinct non-empty id and
// returns how many were queued.
func (uc *TagEnrichmentUseCase) RequestEnrichment(ctx context.Context, listingIDs ...string) (int, error) {
	if uc.queue == nil {
		return 0, errors.New("enrichment queue is not configured")
	}
	ids := distinctIDs(listingIDs)
	if len(ids) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "request enrichment", errors.New("at least one listing id is required"))
	}
	for i, id := range ids {
		if err := uc.queue.PublishListingEnrichment(ctx, id); err != nil {
			return i, fmt.Errorf("publish enrichment request: %w", err)
		}
	}
	return len(ids), nil
}

func (uc *TagEnrichmentUseCase) RequestEnrichmentAll(ctx context.Context) (int, error) {
	ids, err := uc.repo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list listing ids: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.RequestEnrichment(ctx, ids...)
}

func (uc *TagEnrichmentUseCase) generateTags(ctx context.Context, listing *domain.Listing) ([]string, string) {
	tags, err := uc.askOracle(ctx, listing)
	if err == nil && len(tags) > 0 {
		return tags, domain.EnrichmentSourceOracle
	}
	if err != nil {
		slog.Warn("tag_generation_fallback", "listing_id", listing.ID, "error", err.Error())
	}
	return uc.vocab.ExtractTags(listing.Title + " " + listing.Description), domain.EnrichmentSourceKeywords
}

func (uc *TagEnrichmentUseCase) askOracle(ctx context.Context, listing *domain.Listing) ([]string, error) {
	if uc.oracle == nil {
		return nil, errors.New("oracle is not configured")
	}
	oracleCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	raw, err := uc.oracle.GenerateJSON(oracleCtx, buildTaggingPrompt(listing))
	if err != nil {
		return nil, fmt.Errorf("generate tags: %w", err)
	}
	var tags []string
	if err := json.Unmarshal([]byte(extractJSONArray(cleanOracleText(raw))), &tags); err != nil {
		return nil, fmt.Errorf("decode tag array: %w", err)
	}
	return textnorm.Terms(tags), nil
}

// mergeTags keeps existing tags first and appends new ones not already present.
func mergeTags(existing, generated []string) []string {
	merged := make([]string, 0, len(existing)+len(generated))
	merged = append(merged, existing...)
	merged = append(merged, generated...)
	return textnorm.Terms(merged)
}

func distinctIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func buildTaggingPrompt(listing *domain.Listing) string {
	title := strings.TrimSpace(listing.Title)
	if title == "" {
		title = "Sin titulo"
	}
	var b strings.Builder
	b.WriteString("Eres un experto en categorizacion de productos de moda.\n\nPRODUCTO:\n")
	fmt.Fprintf(&b, "Titulo: %s\n", title)
	if desc := strings.TrimSpace(listing.Description); desc != "" {
		fmt.Fprintf(&b, "Descripcion: %s\n", desc)
	}
	if len(listing.Tags) > 0 {
		current, _ := json.Marshal(listing.Tags)
		fmt.Fprintf(&b, "Tags actuales: %s\n", current)
	}
	b.WriteString(`
Genera 15-20 tags en espanol que describan este producto para un motor de busqueda de moda.

INCLUYE:
1. TIPO DE PRENDA: (vestido, pantalon, playera, tenis, etc.)
2. MATERIALES: (algodon, cuero, denim, lino, etc.)
3. COLORES: (negro, blanco, azul, beige, etc.)
4. ESTILO: (casual, formal, deportivo, streetwear, vintage, elegante, etc.)
5. OCASIONES: (playa, gym, oficina, fiesta, diario, etc.)
6. TEMPORADA: (verano, invierno, entretiempo, etc.)
7. CARACTERISTICAS: (comodo, versatil, oversize, ajustado, etc.)
8. MARCAS: si aparece una marca en el titulo, incluyela
9. SINONIMOS: agrega variaciones (ej: "lentes de sol" y "gafas de sol")

REGLAS:
- Todo en minusculas
- Sin tildes
- Incluye terminos generales y especificos

RESPONDE SOLO con un array JSON de strings (sin markdown):
["tag1", "tag2", "tag3"]`)
	return b.String()
}
