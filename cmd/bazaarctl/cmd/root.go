// Package cmd provides the bazaarctl operator commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/bazaar-search/internal/bootstrap"
	"github.com/kirillkom/bazaar-search/internal/config"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
	"github.com/kirillkom/bazaar-search/internal/observability/logging"
)

const serviceName = "bazaarctl"

// services is the slice of the application the commands talk to.
type services struct {
	Searcher  ports.ProductSearcher
	Listings  ports.ListingReader
	Enricher  ports.TagEnricher
	Requester ports.EnrichmentRequester
	Close     func()
}

// serviceFactory builds services; withQueue is set by commands that publish.
type serviceFactory func(ctx context.Context, withQueue bool) (*services, error)

func bootstrapServices(ctx context.Context, withQueue bool) (*services, error) {
	app, err := bootstrap.New(ctx, config.Load(), bootstrap.Options{
		Service:      serviceName,
		WithoutQueue: !withQueue,
	})
	if err != nil {
		return nil, err
	}
	return &services{
		Searcher:  app.SearchUC,
		Listings:  app.ListingsUC,
		Enricher:  app.EnrichUC,
		Requester: app.EnrichUC,
		Close:     app.Close,
	}, nil
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(bootstrapServices).ExecuteContext(ctx)
}

func NewRootCmd(factory serviceFactory) *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Operate the bazaar search service",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// stdout belongs to command output and the MCP transport.
			slog.SetDefault(logging.NewLogger(cmd.ErrOrStderr(), logFormat, serviceName, logLevel))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		newSearchCmd(factory),
		newTagsCmd(factory),
		newEnrichCmd(factory),
		newMCPCmd(factory),
	)
	return cmd
}

func withServices(ctx context.Context, factory serviceFactory, withQueue bool, fn func(*services) error) error {
	svc, err := factory(ctx, withQueue)
	if err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}
	if svc.Close != nil {
		defer svc.Close()
	}
	return fn(svc)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
