package mcpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
)

const (
	serverName         = "bazaar-search"
	defaultResultLimit = 10
	maxResultLimit     = 50
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text description of what the shopper is looking for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of listings to return, default 10"`
}

type ListingResult struct {
	ID     string   `json:"id" jsonschema:"listing identifier"`
	Title  string   `json:"title" jsonschema:"listing title"`
	Price  float64  `json:"price" jsonschema:"asking price"`
	Tags   []string `json:"tags" jsonschema:"normalized listing tags"`
	Score  int      `json:"score" jsonschema:"relevance score, higher is better"`
	Seller string   `json:"seller,omitempty" jsonschema:"seller instagram handle"`
}

type SearchOutput struct {
	Results  []ListingResult `json:"results" jsonschema:"ranked listings"`
	Direct   []string        `json:"direct" jsonschema:"garment terms derived from the query"`
	Related  []string        `json:"related" jsonschema:"context terms derived from the query"`
	Degraded bool            `json:"degraded" jsonschema:"true when results come from plain title matching"`
}

type GetListingInput struct {
	ID string `json:"id" jsonschema:"listing identifier"`
}

type GetListingOutput struct {
	ID           string   `json:"id" jsonschema:"listing identifier"`
	Title        string   `json:"title" jsonschema:"listing title"`
	Description  string   `json:"description" jsonschema:"listing description"`
	Price        float64  `json:"price" jsonschema:"asking price"`
	Category     string   `json:"category,omitempty" jsonschema:"listing category"`
	Tags         []string `json:"tags" jsonschema:"normalized listing tags"`
	ImageURL     string   `json:"image_url,omitempty" jsonschema:"primary image url"`
	SellerHandle string   `json:"seller_handle,omitempty" jsonschema:"seller instagram handle"`
	SellerName   string   `json:"seller_name,omitempty" jsonschema:"seller full name"`
	CreatedAt    string   `json:"created_at" jsonschema:"creation time in RFC 3339"`
}

// Server exposes search and listing lookup as MCP tools.
type Server struct {
	mcp      *mcp.Server
	searcher ports.ProductSearcher
	listings ports.ListingReader
	tools    []string
}

func NewServer(searcher ports.ProductSearcher, listings ports.ListingReader, version string) (*Server, error) {
	if searcher == nil || listings == nil {
		return nil, errors.New("mcp server requires a searcher and a listing reader")
	}
	if version == "" {
		version = "dev"
	}
	s := &Server{
		mcp:      mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		searcher: searcher,
		listings: listings,
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_products",
		Description: "Search second-hand clothing listings by free-text intent, e.g. 'playa' or 'ropa para el gym'. Returns listings ranked by tag relevance.",
	}, s.searchProducts)
	s.tools = append(s.tools, "search_products")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_listing",
		Description: "Fetch a single listing with its tags and seller profile.",
	}, s.getListing)
	s.tools = append(s.tools, "get_listing")

	slog.Debug("mcp_tools_registered", "tools", s.tools)
}

// ToolNames lists the registered tools in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) Run(ctx context.Context) error {
	slog.Info("mcp_server_started", "transport", "stdio")
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("mcp_server_stopped", "error", err)
		return err
	}
	slog.Info("mcp_server_stopped")
	return nil
}

func (s *Server) searchProducts(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, errors.New("query parameter is required")
	}

	resp := s.searcher.SearchProducts(ctx, input.Query)
	if !resp.Success {
		return nil, SearchOutput{}, fmt.Errorf("search failed: %s", resp.Error)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultResultLimit
	}
	limit = min(limit, maxResultLimit, len(resp.Products))

	out := SearchOutput{
		Results:  make([]ListingResult, 0, limit),
		Direct:   nonNil(resp.AITags.Direct),
		Related:  nonNil(resp.AITags.Related),
		Degraded: resp.Degraded,
	}
	for _, p := range resp.Products[:limit] {
		out.Results = append(out.Results, toListingResult(p))
	}
	return nil, out, nil
}

func (s *Server) getListing(ctx context.Context, _ *mcp.CallToolRequest, input GetListingInput) (
	*mcp.CallToolResult,
	GetListingOutput,
	error,
) {
	listing, err := s.listings.GetListing(ctx, input.ID)
	if err != nil {
		if domain.IsKind(err, domain.ErrListingNotFound) {
			return nil, GetListingOutput{}, fmt.Errorf("listing %q not found", input.ID)
		}
		return nil, GetListingOutput{}, err
	}
	out := GetListingOutput{
		ID:          listing.ID,
		Title:       listing.Title,
		Description: listing.Description,
		Price:       listing.Price,
		Category:    listing.Category,
		Tags:        nonNil(listing.Tags),
		ImageURL:    listing.ImageURL,
		CreatedAt:   listing.CreatedAt.UTC().Format(time.RFC3339),
	}
	if listing.Seller != nil {
		out.SellerHandle = listing.Seller.InstagramHandle
		out.SellerName = listing.Seller.FullName
	}
	return nil, out, nil
}

func toListingResult(p domain.ScoredListing) ListingResult {
	r := ListingResult{
		ID:    p.ID,
		Title: p.Title,
		Price: p.Price,
		Tags:  nonNil(p.Tags),
		Score: p.Score,
	}
	if p.Seller != nil {
		r.Seller = p.Seller.InstagramHandle
	}
	return r
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
