package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sjsage522/carspecworker/logger"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := NewRootCmd().Execute(); err != nil {
		logger.Default().Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carspecworker",
		Short: "Crawls the auto-data.net car catalog",
		Long: `carspecworker walks the auto-data.net catalog from the brand index down to
every car's specification page and writes the result to brands.json and cars.json.

Use "crawl" for a single run or "serve" to run on a schedule behind an HTTP trigger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.Init()
		},
	}

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewServeCmd())

	return cmd
}
