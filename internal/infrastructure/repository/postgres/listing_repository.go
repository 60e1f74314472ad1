package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
)

type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `
SELECT l.id, l.title, COALESCE(l.description, ''), l.tags, l.price::float8,
	COALESCE(l.category, ''), COALESCE(l.image_url, ''), COALESCE(l.seller_id, ''),
	l.created_at, l.updated_at,
	p.id, p.instagram_handle, p.full_name
FROM listings l
LEFT JOIN profiles p ON p.id = l.seller_id
`

const listingOrder = "ORDER BY l.created_at DESC, l.id ASC"

// FindByTags matches listings that share at least one tag with tags.
// Stored tags get the same normalization as textnorm.Term in SQL, so a
// stored "Traje de Baño" matches the term "traje de bano".
func (r *ListingRepository) FindByTags(ctx context.Context, tags []string) ([]domain.Listing, error) {
	terms := textnorm.Terms(tags)
	if len(terms) == 0 {
		return []domain.Listing{}, nil
	}
	termsJSON, err := json.Marshal(terms)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	return r.queryListings(ctx, "find listings by tags", listingColumns+`
WHERE EXISTS (
	SELECT 1
	FROM jsonb_array_elements_text(l.tags) AS t(tag)
	JOIN jsonb_array_elements_text($1::jsonb) AS q(term)
		ON regexp_replace(unaccent(lower(btrim(t.tag))), '\s+', ' ', 'g') = q.term
)
`+listingOrder, termsJSON)
}

// FindByText matches the whole query as a substring of title or description.
func (r *ListingRepository) FindByText(ctx context.Context, query string) ([]domain.Listing, error) {
	return r.queryListings(ctx, "find listings by text", listingColumns+`
WHERE l.title ILIKE $1 OR l.description ILIKE $1
`+listingOrder, containsPattern(query))
}

func (r *ListingRepository) FindByTitle(ctx context.Context, query string, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.queryListings(ctx, "find listings by title", listingColumns+`
WHERE l.title ILIKE $1
`+listingOrder+`
LIMIT $2`, containsPattern(query), limit)
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, listingColumns+"WHERE l.id = $1", id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrListingNotFound, "get listing", fmt.Errorf("listing %s", id))
		}
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM listings ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list listing ids: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan listing id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing ids: %w", err)
	}
	return out, nil
}

func (r *ListingRepository) ListTagCounts(ctx context.Context) ([]domain.TagCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT lower(btrim(t.tag)) AS tag, COUNT(DISTINCT l.id)
FROM listings l
CROSS JOIN LATERAL jsonb_array_elements_text(l.tags) AS t(tag)
WHERE btrim(t.tag) <> ''
GROUP BY 1
ORDER BY 1
`)
	if err != nil {
		return nil, fmt.Errorf("list tag counts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TagCount, 0)
	for rows.Next() {
		var count domain.TagCount
		if err := rows.Scan(&count.Tag, &count.Listings); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		out = append(out, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag counts: %w", err)
	}
	return out, nil
}

func (r *ListingRepository) UpdateTags(ctx context.Context, id string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE listings
SET tags = $2, updated_at = $3
WHERE id = $1
`, id, tagsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update listing tags: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update listing tags rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrListingNotFound, "update listing tags", fmt.Errorf("listing %s", id))
	}
	return nil
}

func (r *ListingRepository) queryListings(ctx context.Context, operation, query string, args ...any) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer rows.Close()

	out := make([]domain.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", operation, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (domain.Listing, error) {
	var (
		listing    domain.Listing
		tagsRaw    []byte
		sellerID   sql.NullString
		sellerIG   sql.NullString
		sellerName sql.NullString
	)
	err := row.Scan(
		&listing.ID, &listing.Title, &listing.Description, &tagsRaw, &listing.Price,
		&listing.Category, &listing.ImageURL, &listing.SellerID,
		&listing.CreatedAt, &listing.UpdatedAt,
		&sellerID, &sellerIG, &sellerName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, err
		}
		return domain.Listing{}, fmt.Errorf("scan listing: %w", err)
	}

	listing.Tags = []string{}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &listing.Tags); err != nil {
			return domain.Listing{}, fmt.Errorf("unmarshal tags: %w", err)
		}
		if listing.Tags == nil {
			listing.Tags = []string{}
		}
	}
	if sellerID.Valid {
		listing.Seller = &domain.SellerProfile{
			ID:              sellerID.String,
			InstagramHandle: sellerIG.String,
			FullName:        sellerName.String,
		}
	}
	return listing, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(query)) + "%"
}
