package cmd

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/bazaar-search/internal/adapters/mcp"
)

var version = "dev"

func newMCPCmd(factory serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve search_products and get_listing over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), factory, false, func(svc *services) error {
				server, err := mcpadapter.NewServer(svc.Searcher, svc.Listings, version)
				if err != nil {
					return err
				}
				return server.Run(cmd.Context())
			})
		},
	}
}
