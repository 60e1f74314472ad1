package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTagsCmd(factory serviceFactory) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List every tag in the catalogue with its listing count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), factory, false, func(svc *services) error {
				tags, err := svc.Listings.TagInventory(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(tags)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TAG\tLISTINGS")
				for _, t := range tags {
					fmt.Fprintf(tw, "%s\t%d\n", t.Tag, t.Listings)
				}
				fmt.Fprintf(tw, "\n%d unique tags\n", len(tags))
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
