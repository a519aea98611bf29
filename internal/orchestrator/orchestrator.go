package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"sjsage522/carspecworker/config"
	"sjsage522/carspecworker/internal/crawler"
	"sjsage522/carspecworker/logger"
)

// crawlCompletedKey is the field name of the summary event on the stream
const crawlCompletedKey = "crawl_completed"

// Pacing bounds how hard the crawl hits the site
type Pacing struct {
	ChunkSize   int
	Concurrency int
	ChunkDelay  time.Duration
	ModelDelay  time.Duration
	GenDelay    time.Duration
	CarDelay    time.Duration
}

// DefaultPacing returns the pacing the site tolerates
func DefaultPacing() Pacing {
	return Pacing{
		ChunkSize:   10,
		Concurrency: 3,
		ChunkDelay:  10 * time.Second,
		ModelDelay:  8 * time.Second,
		GenDelay:    6 * time.Second,
		CarDelay:    4 * time.Second,
	}
}

// PacingFromConfig reads pacing from the application configuration
func PacingFromConfig(cfg *config.Config) Pacing {
	return Pacing{
		ChunkSize:   cfg.BatchSize,
		Concurrency: cfg.ConcurrencyLimit,
		ChunkDelay:  cfg.BatchDelay,
		ModelDelay:  cfg.ModelDelay,
		GenDelay:    cfg.GenDelay,
		CarDelay:    cfg.CarDelay,
	}
}

// Persister stores the brand index and the full vehicle tree
type Persister interface {
	Save(ctx context.Context, brands []crawler.Brand, vehicles []crawler.Vehicle) error
}

// Publisher announces a finished crawl
type Publisher interface {
	Publish(ctx context.Context, key string, message []byte) error
	Trim(ctx context.Context) error
}

// Site identifies the catalog to crawl
type Site struct {
	BaseURL   string
	BrandsURL string
	Locators  config.Locators
}

// Orchestrator runs the hierarchical crawl: brand index, then models,
// generations and cars below every brand. Brands are processed in chunks;
// within a chunk, branches run concurrently under a global ceiling.
type Orchestrator struct {
	site      Site
	fetcher   crawler.PageFetcher
	store     Persister
	publisher Publisher
	pacing    Pacing
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
	log       *logger.Logger

	state    lifecycle
	progress Progress
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPacing overrides DefaultPacing
func WithPacing(p Pacing) Option {
	return func(o *Orchestrator) { o.pacing = p }
}

// WithPublisher announces every completed crawl through p
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithSleeper replaces the timer used for pacing delays
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an idle Orchestrator
func New(site Site, fetcher crawler.PageFetcher, store Persister, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		site:    site,
		fetcher: fetcher,
		store:   store,
		pacing:  DefaultPacing(),
		sleep:   sleepContext,
		now:     time.Now,
		log:     logger.ForOrchestrator(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the lifecycle state
func (o *Orchestrator) State() State {
	return o.state.Load()
}

// Progress returns the records extracted so far by the current or last crawl
func (o *Orchestrator) Progress() AmountSummary {
	return o.progress.Snapshot()
}

// Start runs one full crawl and blocks until it finishes. Any fetch error
// aborts the crawl and nothing is persisted. A persistence error does not
// fail the crawl; it is reported in the report message.
func (o *Orchestrator) Start(ctx context.Context) (*Report, error) {
	if !o.state.begin() {
		return nil, ErrAlreadyRunning
	}
	o.progress.reset()

	o.log.Info().Str("url", o.site.BrandsURL).Msg("Crawl started")

	report, err := o.crawl(ctx)
	if err != nil {
		o.state.Store(StateFailed)
		o.log.Error().Err(err).Msg("Crawl failed")
		return nil, err
	}

	persistErr := o.store.Save(ctx, report.Brands, report.Vehicles)
	if persistErr != nil {
		o.log.Error().Err(persistErr).Msg("Failed to persist crawl result")
	}
	report.Finalize(persistErr, o.now())

	o.publish(ctx, report)
	o.state.Store(StateCompleted)

	o.log.Info().
		Int("brands", report.AmountSummary.Brands).
		Int("models", report.AmountSummary.Models).
		Int("generations", report.AmountSummary.Generations).
		Int("cars", report.AmountSummary.Cars).
		Str("message", report.Message).
		Msg("Crawl completed")
	return report, nil
}

func (o *Orchestrator) crawl(ctx context.Context) (*Report, error) {
	loc := o.site.Locators

	items, err := o.fetcher.Fetch(ctx, o.site.BrandsURL, loc.Brand.List)
	if err != nil {
		return nil, fmt.Errorf("brand index: %w", err)
	}
	brands := crawler.ExtractBrands(items, loc.Brand, o.site.BaseURL)
	o.progress.brands.Store(int64(len(brands)))

	report := NewReport(len(brands), o.now())
	sem := semaphore.NewWeighted(int64(max(o.pacing.Concurrency, 1)))

	chunks := Chunk(brands, o.pacing.ChunkSize)
	for i, chunk := range chunks {
		if i > 0 {
			if err := o.sleep(ctx, o.pacing.ChunkDelay); err != nil {
				return nil, err
			}
		}

		o.log.Debug().
			Int("chunk", i+1).
			Int("of", len(chunks)).
			Int("brands", len(chunk)).
			Msg("Processing chunk")

		vehicles, counts, err := o.crawlChunk(ctx, sem, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		report.MergeChunk(vehicles, counts)
	}

	return report, nil
}

// crawlChunk runs one branch per brand and waits for all of them.
// Each branch holds a slot of sem while it runs. The next branch is not
// launched until the previous one has issued its brand-page request, so
// requests go out in list order.
func (o *Orchestrator) crawlChunk(ctx context.Context, sem *semaphore.Weighted, brands []crawler.Brand) ([]crawler.Vehicle, []Counts, error) {
	vehicles := make([]crawler.Vehicle, len(brands))
	counts := make([]Counts, len(brands))

	g, gctx := errgroup.WithContext(ctx)
	var acquireErr error
	for i, brand := range brands {
		i, brand := i, brand
		if err := sem.Acquire(gctx, 1); err != nil {
			acquireErr = err
			break
		}
		started := make(chan struct{})
		markStarted := sync.OnceFunc(func() { close(started) })
		g.Go(func() error {
			defer sem.Release(1)
			defer markStarted()
			vehicle, c, err := o.crawlBrand(gctx, brand, markStarted)
			if err != nil {
				return fmt.Errorf("brand %q: %w", brand.Title, err)
			}
			vehicles[i] = vehicle
			counts[i] = c
			return nil
		})
		<-started
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if acquireErr != nil {
		return nil, nil, acquireErr
	}
	return vehicles, counts, nil
}

// crawlBrand fetches the models of brand and everything below them.
// started is called once the brand page has been requested.
func (o *Orchestrator) crawlBrand(ctx context.Context, brand crawler.Brand, started func()) (crawler.Vehicle, Counts, error) {
	vehicle := crawler.Vehicle{Brand: brand, Models: []crawler.Model{}}
	if brand.PageURL == "" {
		return vehicle, Counts{}, nil
	}

	loc := o.site.Locators.Model
	items, err := o.fetcher.Fetch(ctx, brand.PageURL, loc.List)
	started()
	if err != nil {
		return vehicle, Counts{}, err
	}
	models := crawler.ExtractModels(items, loc, o.site.BaseURL)
	o.progress.models.Add(int64(len(models)))

	if err := o.sleep(ctx, o.pacing.ModelDelay); err != nil {
		return vehicle, Counts{}, err
	}

	below := make([]Counts, len(models))
	g, gctx := errgroup.WithContext(ctx)
	for i := range models {
		i := i
		g.Go(func() error {
			c, err := o.crawlModel(gctx, &models[i])
			below[i] = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return vehicle, Counts{}, err
	}

	counts := Counts{Models: len(models)}
	for _, c := range below {
		counts = counts.Add(c)
	}
	vehicle.Models = models
	return vehicle, counts, nil
}

func (o *Orchestrator) crawlModel(ctx context.Context, model *crawler.Model) (Counts, error) {
	if model.PageURL == "" {
		return Counts{}, nil
	}

	loc := o.site.Locators.Generation
	items, err := o.fetcher.Fetch(ctx, model.PageURL, loc.List)
	if err != nil {
		return Counts{}, err
	}
	generations := crawler.ExtractGenerations(items, loc, o.site.BaseURL)
	o.progress.generations.Add(int64(len(generations)))

	if err := o.sleep(ctx, o.pacing.GenDelay); err != nil {
		return Counts{}, err
	}

	below := make([]Counts, len(generations))
	g, gctx := errgroup.WithContext(ctx)
	for i := range generations {
		i := i
		g.Go(func() error {
			c, err := o.crawlGeneration(gctx, &generations[i])
			below[i] = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Counts{}, err
	}

	counts := Counts{Generations: len(generations)}
	for _, c := range below {
		counts = counts.Add(c)
	}
	model.Generations = generations
	return counts, nil
}

func (o *Orchestrator) crawlGeneration(ctx context.Context, generation *crawler.Generation) (Counts, error) {
	if generation.PageURL == "" {
		return Counts{}, nil
	}

	listLoc := o.site.Locators.CarList
	items, err := o.fetcher.Fetch(ctx, generation.PageURL, listLoc.List)
	if err != nil {
		return Counts{}, err
	}
	links := crawler.ExtractCarLinks(items, listLoc, o.site.BaseURL)

	specLoc := o.site.Locators.CarSpec
	cars := make([]crawler.CarSpec, len(links))
	g, gctx := errgroup.WithContext(ctx)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			page, err := o.fetcher.Fetch(gctx, link, specLoc.Page)
			if err != nil {
				return err
			}
			cars[i] = crawler.ExtractCarSpec(page, specLoc, o.site.BaseURL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Counts{}, err
	}
	generation.Cars = cars
	o.progress.cars.Add(int64(len(cars)))

	if err := o.sleep(ctx, o.pacing.CarDelay); err != nil {
		return Counts{}, err
	}
	return Counts{Cars: len(cars)}, nil
}

func (o *Orchestrator) publish(ctx context.Context, report *Report) {
	if o.publisher == nil {
		return
	}

	data, err := json.Marshal(report.Summary())
	if err != nil {
		o.log.Error().Err(err).Msg("Failed to marshal crawl summary")
		return
	}
	if err := o.publisher.Publish(ctx, crawlCompletedKey, data); err != nil {
		o.log.Error().Err(err).Msg("Failed to publish crawl summary")
		return
	}
	if err := o.publisher.Trim(ctx); err != nil {
		o.log.Warn().Err(err).Msg("Failed to trim stream")
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
