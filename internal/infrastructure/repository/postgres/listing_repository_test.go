package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
)

var listingRowColumns = []string{
	"id", "title", "description", "tags", "price", "category", "image_url", "seller_id",
	"created_at", "updated_at", "seller_profile_id", "instagram_handle", "full_name",
}

func newRepoWithMock(t *testing.T) (*ListingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewListingRepository(db), mock, func() { _ = db.Close() }
}

func TestFindByTagsSendsLoweredTermsAsJSON(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(listingRowColumns).
		AddRow("l-1", "Sandalias de playa", "Talla 38", []byte(`["sandalias","Verano"]`), 250.0, "calzado", "", "s-1", now, now, "s-1", "@bazar", "Ana").
		AddRow("l-2", "Bikini", "", []byte(`null`), 120.0, "", "", "", now, now, nil, nil, nil)

	mock.ExpectQuery("jsonb_array_elements_text").
		WithArgs([]byte(`["sandalias","verano"]`)).
		WillReturnRows(rows)

	listings, err := repo.FindByTags(context.Background(), []string{"Sandalias", "verano"})
	if err != nil {
		t.Fatalf("FindByTags() error = %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	first := listings[0]
	if first.Seller == nil || first.Seller.InstagramHandle != "@bazar" {
		t.Fatalf("expected seller profile to be joined, got %+v", first.Seller)
	}
	if len(first.Tags) != 2 || first.Tags[1] != "Verano" {
		t.Fatalf("unexpected tags %v", first.Tags)
	}
	if listings[1].Seller != nil {
		t.Fatalf("expected no seller for listing without profile")
	}
	if listings[1].Tags == nil || len(listings[1].Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", listings[1].Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindByTagsComparesAccentFreeTerms(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery(`unaccent\(lower\(btrim\(t\.tag\)\)\)`).
		WithArgs([]byte(`["traje de bano","sandalias"]`)).
		WillReturnRows(sqlmock.NewRows(listingRowColumns).
			AddRow("l-1", "Traje completo", "", []byte(`["Traje de Baño"]`), 300.0, "", "", "", now, now, nil, nil, nil))

	listings, err := repo.FindByTags(context.Background(), []string{" Traje  de Baño", "traje de bano", "SANDALIAS", " "})
	if err != nil {
		t.Fatalf("FindByTags() error = %v", err)
	}
	if len(listings) != 1 || listings[0].Tags[0] != "Traje de Baño" {
		t.Fatalf("expected stored tag to come back unchanged, got %+v", listings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindByTagsSkipsQueryForEmptyTerms(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	listings, err := repo.FindByTags(context.Background(), nil)
	if err != nil {
		t.Fatalf("FindByTags() error = %v", err)
	}
	if listings == nil || len(listings) != 0 {
		t.Fatalf("expected empty result, got %v", listings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindByTextEscapesLikePattern(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("ILIKE").
		WithArgs(`%100\% algodon\_v2%`).
		WillReturnRows(sqlmock.NewRows(listingRowColumns))

	listings, err := repo.FindByText(context.Background(), " 100% algodon_v2 ")
	if err != nil {
		t.Fatalf("FindByText() error = %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected no listings, got %d", len(listings))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindByTitleAppliesLimit(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("LIMIT").
		WithArgs("%playa%", 20).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.FindByTitle(context.Background(), "playa", 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM listings l").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateTagsReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE listings").
		WithArgs("missing", []byte(`["gorra"]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateTags(context.Background(), "missing", []string{"gorra"})
	if !domain.IsKind(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListTagCounts(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("GROUP BY 1").
		WillReturnRows(sqlmock.NewRows([]string{"tag", "count"}).
			AddRow("casual", 3).
			AddRow("verano", 1))

	counts, err := repo.ListTagCounts(context.Background())
	if err != nil {
		t.Fatalf("ListTagCounts() error = %v", err)
	}
	if len(counts) != 2 || counts[0].Tag != "casual" || counts[0].Listings != 3 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListIDs(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id FROM listings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := repo.ListIDs(context.Background())
	if err != nil {
		t.Fatalf("ListIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
