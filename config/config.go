package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"sjsage522/carspecworker/pkg/errors"
)

// DefaultRateLimitBlockSeconds is how long a host stays blocked after a 429
const DefaultRateLimitBlockSeconds = 500

// Config represents the application configuration
type Config struct {
	// Target site
	BaseURL    string
	BrandsPath string

	// Crawl pacing
	ConcurrencyLimit int
	BatchSize        int
	BatchDelay       time.Duration
	ModelDelay       time.Duration
	GenDelay         time.Duration
	CarDelay         time.Duration

	// Fetching
	FetchTimeout   time.Duration
	FetchRetries   int
	RateLimitBlock time.Duration

	// Persistence
	OutputDir string

	// Trigger surfaces
	HTTPAddr      string
	CrawlSchedule string
	RunOnStartup  bool

	// Redis configuration, empty address disables publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration, empty address disables the rate-limit block
	MemcacheAddr string

	// Optional YAML file overriding the built-in site locators
	LocatorsFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		BaseURL:              strings.TrimRight(getEnv("BASE_URL", "https://www.auto-data.net"), "/"),
		BrandsPath:           getEnv("BRANDS_PATH", "/en/allbrands"),
		ConcurrencyLimit:     getEnvInt("CONCURRENCY_LIMIT", 3),
		BatchSize:            getEnvInt("BATCH_SIZE", 10),
		BatchDelay:           getEnvSeconds("BATCH_DELAY_SECONDS", 10),
		ModelDelay:           getEnvSeconds("MODEL_DELAY_SECONDS", 8),
		GenDelay:             getEnvSeconds("GEN_DELAY_SECONDS", 6),
		CarDelay:             getEnvSeconds("CAR_DELAY_SECONDS", 4),
		FetchTimeout:         getEnvSeconds("FETCH_TIMEOUT_SECONDS", 10),
		FetchRetries:         getEnvInt("FETCH_RETRIES", 2),
		RateLimitBlock:       getEnvSeconds("RATE_LIMIT_BLOCK_SECONDS", DefaultRateLimitBlockSeconds),
		OutputDir:            getEnv("OUTPUT_DIR", "."),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CrawlSchedule:        getEnv("CRAWL_SCHEDULE", "0 2 1 * *"),
		RunOnStartup:         getEnvBool("RUN_ON_STARTUP", true),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "carspec:crawls"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 100),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		LocatorsFile:         getEnv("LOCATORS_FILE", ""),
		Environment:          getEnv("CARSPEC_ENVIRONMENT", "development"),
	}
}

// Validate checks the values that would make a crawl impossible
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.NewConfiguration("BASE_URL must not be empty", nil)
	}
	if c.ConcurrencyLimit <= 0 {
		return errors.NewConfiguration("CONCURRENCY_LIMIT must be positive", nil)
	}
	if c.BatchSize <= 0 {
		return errors.NewConfiguration("BATCH_SIZE must be positive", nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.FetchRetries < 0 {
		return errors.NewConfiguration("FETCH_RETRIES must be non-negative", nil)
	}
	if c.BatchDelay < 0 || c.ModelDelay < 0 || c.GenDelay < 0 || c.CarDelay < 0 {
		return errors.NewConfiguration("delays must be non-negative", nil)
	}
	if _, err := cron.ParseStandard(c.CrawlSchedule); err != nil {
		return errors.NewConfiguration("invalid CRAWL_SCHEDULE", err)
	}
	return nil
}

// BrandsURL returns the absolute URL of the brand index page
func (c *Config) BrandsURL() string {
	return c.BaseURL + c.BrandsPath
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
