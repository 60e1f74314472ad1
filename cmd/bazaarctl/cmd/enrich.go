package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEnrichCmd(factory serviceFactory) *cobra.Command {
	var (
		all  bool
		sync bool
	)

	cmd := &cobra.Command{
		Use:   "enrich [listing-id...]",
		Short: "Regenerate listing tags with the language model",
		Long: `Queue listings for tag enrichment by the worker. With --sync the tags
are generated in-process and printed, which requires explicit ids.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("pass listing ids or --all, not both")
			case !all && len(args) == 0:
				return errors.New("pass at least one listing id or --all")
			case all && sync:
				return errors.New("--sync needs explicit listing ids")
			}

			return withServices(cmd.Context(), factory, !sync, func(svc *services) error {
				out := cmd.OutOrStdout()
				if sync {
					var failed int
					for _, id := range args {
						result, err := svc.Enricher.EnrichTags(cmd.Context(), id)
						if err != nil {
							failed++
							fmt.Fprintf(out, "%s: error: %v\n", id, err)
							continue
						}
						fmt.Fprintf(out, "%s: %d tags (%s): %s\n", id, len(result.Tags), result.Source, strings.Join(result.Tags, ", "))
					}
					if failed > 0 {
						return fmt.Errorf("%d of %d listings failed", failed, len(args))
					}
					return nil
				}

				var (
					queued int
					err    error
				)
				if all {
					queued, err = svc.Requester.RequestEnrichmentAll(cmd.Context())
				} else {
					queued, err = svc.Requester.RequestEnrichment(cmd.Context(), args...)
				}
				fmt.Fprintf(out, "queued %d listings\n", queued)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Queue every listing in the catalogue")
	cmd.Flags().BoolVar(&sync, "sync", false, "Enrich in-process instead of queueing")
	return cmd
}
