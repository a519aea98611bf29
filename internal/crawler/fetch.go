package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"sjsage522/carspecworker/config"
	"sjsage522/carspecworker/helpers"
	"sjsage522/carspecworker/logger"
	"sjsage522/carspecworker/pkg/errors"
	"sjsage522/carspecworker/services/cache"
)

const (
	defaultFetchTimeout   = 10 * time.Second
	defaultFetchRetries   = 2
	defaultRateLimitBlock = config.DefaultRateLimitBlockSeconds * time.Second
)

// Fetcher downloads pages and selects nodes from them.
//
// Every attempt gets its own deadline. Transport failures, timeouts and 5xx
// responses are retried with exponential backoff; a 429 blocks the host in
// the cache so later fetches fail fast until the block expires.
type Fetcher struct {
	client     *http.Client
	cache      cache.CacheService
	timeout    time.Duration
	retries    int
	blockTime  time.Duration
	newBackOff func() backoff.BackOff
	log        *logger.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

// WithCache sets the cache used to remember rate-limit blocks
func WithCache(c cache.CacheService) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// WithTimeout sets the per-attempt deadline
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithRetries sets how many times a retryable failure is retried
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) { f.retries = n }
}

// WithRateLimitBlock sets how long a host stays blocked after a 429
func WithRateLimitBlock(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.blockTime = d }
}

// WithBackOff sets the backoff policy between retries
func WithBackOff(newBackOff func() backoff.BackOff) FetcherOption {
	return func(f *Fetcher) { f.newBackOff = newBackOff }
}

// WithFetchLogger sets the logger
func WithFetchLogger(l *logger.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = l }
}

// NewFetcher creates a Fetcher with a memory cache and the default limits
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		cache:     cache.NewMemoryCache(),
		timeout:   defaultFetchTimeout,
		retries:   defaultFetchRetries,
		blockTime: defaultRateLimitBlock,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		log: logger.ForFetcher(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and returns the nodes matching locator.
// An empty locator returns the whole document.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, locator string) (*goquery.Selection, error) {
	blockKey := rateLimitKey(rawURL)
	if f.isBlocked(blockKey) {
		return nil, errors.NewRateLimit(rawURL, f.blockTime)
	}

	attempt := 0
	operation := func() (*goquery.Document, error) {
		attempt++
		doc, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		if errors.IsType(err, errors.ErrorTypeRateLimit) {
			f.block(blockKey, errors.RetryAfter(err))
			return nil, backoff.Permanent(err)
		}
		if !errors.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	notify := func(err error, wait time.Duration) {
		f.log.Warn().
			Err(err).
			Str("url", rawURL).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("Fetch failed, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), uint64(max(f.retries, 0))), ctx)
	doc, err := backoff.RetryNotifyWithData(operation, policy, notify)
	if err != nil {
		return nil, err
	}

	if locator == "" {
		return doc.Selection, nil
	}
	return doc.Find(locator), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*goquery.Document, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := helpers.FetchPage(attemptCtx, f.client, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing(rawURL, "failed to parse HTML", err)
	}
	return doc, nil
}

func (f *Fetcher) isBlocked(key string) bool {
	if f.cache == nil || key == "" {
		return false
	}
	_, found, err := f.cache.Get(key)
	if err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("Rate limit lookup failed")
		return false
	}
	return found
}

// block stores the rate-limit key for the configured block time, or for
// the server's Retry-After when that is longer
func (f *Fetcher) block(key string, retryAfter time.Duration) {
	duration := max(f.blockTime, retryAfter)
	if f.cache == nil || key == "" || duration <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(duration/time.Second)))
	if err := f.cache.Set(key, value, duration); err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("Failed to store rate limit block")
		return
	}
	f.log.Warn().
		Str("key", key).
		Dur("block", duration).
		Msg("Rate limited, blocking further requests")
}

// rateLimitKey scopes a block to the host of rawURL
func rateLimitKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return "rate_limited:" + u.Host
}
