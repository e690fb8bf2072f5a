package main

import (
	"context"
	"fmt"
	"os"

	"biedronka/scraper/internal/config"
	"biedronka/scraper/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the catalog scraper.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Crawl a retail catalog into a navigation tree and product records",
		Long: `scraper ingests a hierarchical retail catalog from a storefront.

A run has two phases. "build" walks categories, sub-categories and paginated
listings into a navigation tree and serializes it. "ingest" replays the
tree's leaves with bounded concurrency, extracting product fields and images
and appending one JSON record per product. "run" does both.

All selectors, limits and output paths come from config.yaml in the working
directory (with environment variable overrides).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewRunCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newContainer loads configuration and wires the application components.
func newContainer(cmd *cobra.Command) (*container.Container, error) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := container.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return app, nil
}
