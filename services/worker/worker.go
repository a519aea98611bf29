package worker

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"

	"sjsage522/carspecworker/internal/orchestrator"
	"sjsage522/carspecworker/logger"
)

// Runner runs one crawl to completion
type Runner interface {
	Start(ctx context.Context) (*orchestrator.Report, error)
}

// Worker triggers crawls on a cron schedule
type Worker struct {
	ctx          context.Context
	runner       Runner
	schedule     string
	runOnStartup bool
	log          *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(ctx context.Context, runner Runner, schedule string, runOnStartup bool) *Worker {
	return &Worker{
		ctx:          ctx,
		runner:       runner,
		schedule:     schedule,
		runOnStartup: runOnStartup,
		log:          logger.ForWorker(),
	}
}

// Start schedules crawls and blocks until the worker context is done.
// A tick that fires while a crawl is still running is skipped.
func (w *Worker) Start() error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, w.RunOnce); err != nil {
		return err
	}

	if w.runOnStartup {
		go w.RunOnce()
	}

	c.Start()
	w.log.Info().Str("schedule", w.schedule).Msg("Worker started")

	<-w.ctx.Done()
	<-c.Stop().Done()
	w.log.Info().Msg("Worker stopped")
	return nil
}

// RunOnce runs a single crawl and logs its outcome
func (w *Worker) RunOnce() {
	start := time.Now()
	report, err := w.runner.Start(w.ctx)
	elapsed := time.Since(start)

	if errors.Is(err, orchestrator.ErrAlreadyRunning) {
		w.log.Warn().Msg("Crawl already running, skipping")
		return
	}
	if err != nil {
		w.log.Error().Err(err).Dur("elapsed", elapsed).Msg("Crawl failed")
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	w.log.Info().
		Dur("elapsed", elapsed).
		Uint64("heap_alloc_mb", mem.HeapAlloc/1024/1024).
		Uint64("sys_mb", mem.Sys/1024/1024).
		Int("brands", report.AmountSummary.Brands).
		Int("models", report.AmountSummary.Models).
		Int("generations", report.AmountSummary.Generations).
		Int("cars", report.AmountSummary.Cars).
		Str("message", report.Message).
		Msg("Crawl finished")
}
