package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sjsage522/carspecworker/logger"
)

// NewCrawlCmd creates the crawl command
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a single crawl and exit",
		Args:  cobra.NoArgs,
		RunE:  runCrawl,
	}

	cmd.Flags().StringP("output", "o", "", "Directory for brands.json and cars.json (overrides OUTPUT_DIR)")

	return cmd
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, locators, err := loadConfig()
	if err != nil {
		return err
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.OutputDir = output
	}

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	logger.Info("Crawling %s into %s", cfg.BrandsURL(), cfg.OutputDir)

	report, err := newOrchestrator(cfg, locators, services).Start(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report.Summary())
}
