package domain

import "time"

type SellerProfile struct {
	ID              string `json:"id"`
	InstagramHandle string `json:"instagram_handle,omitempty"`
	FullName        string `json:"full_name,omitempty"`
}

// Listing is a garment offered for sale. The search core never mutates it.
type Listing struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Price       float64        `json:"price"`
	Category    string         `json:"category,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	SellerID    string         `json:"seller_id,omitempty"`
	Seller      *SellerProfile `json:"seller,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ScoredListing carries the per-request relevance score. Never persisted.
type ScoredListing struct {
	Listing
	Score int `json:"score"`
}

type TagCount struct {
	Tag      string `json:"tag"`
	Listings int    `json:"listings"`
}

type TagEnrichment struct {
	ListingID string   `json:"listing_id"`
	Previous  []string `json:"previous"`
	Tags      []string `json:"tags"`
	Source    string   `json:"source"`
}

const (
	EnrichmentSourceOracle   = "oracle"
	EnrichmentSourceKeywords = "keywords"
)
