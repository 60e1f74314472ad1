package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
)

func newSearchCmd(factory serviceFactory) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a relevance search and print ranked listings",
		Example: `  bazaarctl search playa
  bazaarctl search "ropa para el gym" --limit 5 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withServices(cmd.Context(), factory, false, func(svc *services) error {
				resp := svc.Searcher.SearchProducts(cmd.Context(), query)
				if limit > 0 && len(resp.Products) > limit {
					resp.Products = resp.Products[:limit]
				}
				if jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if err := enc.Encode(resp); err != nil {
						return err
					}
				} else {
					renderSearch(cmd.OutOrStdout(), resp)
				}
				if !resp.Success {
					return errors.New(resp.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the raw search response as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum listings to print (0 prints all)")
	return cmd
}

func renderSearch(w io.Writer, resp domain.SearchResponse) {
	if !resp.Success {
		fmt.Fprintf(w, "search failed: %s\n", resp.Error)
		return
	}
	fmt.Fprintf(w, "direct:  %s\n", strings.Join(resp.AITags.Direct, ", "))
	fmt.Fprintf(w, "related: %s\n", strings.Join(resp.AITags.Related, ", "))
	if resp.Degraded {
		fmt.Fprintln(w, "degraded: title match only")
	}
	fmt.Fprintf(w, "%d listings\n\n", len(resp.Products))
	if len(resp.Products) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tTITLE\tPRICE\tTAGS")
	for _, p := range resp.Products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n", p.Score, p.ID, p.Title, p.Price, strings.Join(p.Tags, ","))
	}
	_ = tw.Flush()
}
