package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"sjsage522/carspecworker/internal/api"
	"sjsage522/carspecworker/logger"
	"sjsage522/carspecworker/services/worker"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger and crawl on a schedule",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	cmd.Flags().String("schedule", "", "Cron schedule (overrides CRAWL_SCHEDULE)")
	cmd.Flags().Bool("no-startup-crawl", false, "Do not crawl immediately on start")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.Default()

	cfg, locators, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if schedule, _ := cmd.Flags().GetString("schedule"); schedule != "" {
		cfg.CrawlSchedule = schedule
	}
	if skip, _ := cmd.Flags().GetBool("no-startup-crawl"); skip {
		cfg.RunOnStartup = false
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("schedule", cfg.CrawlSchedule).
		Str("addr", cfg.HTTPAddr).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	orch := newOrchestrator(cfg, locators, services)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(orch)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	w := worker.NewWorker(ctx, orch, cfg.CrawlSchedule, cfg.RunOnStartup)
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal, server failure or worker error
	var runErr error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case runErr = <-serverDone:
		log.Error().Err(runErr).Msg("HTTP server exited")
	case runErr = <-workerDone:
		log.Error().Err(runErr).Msg("Worker exited")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown incomplete")
	}

	return runErr
}
