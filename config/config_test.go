package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/carspecworker/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://www.auto-data.net", config.BaseURL)
	assert.Equal(t, "https://www.auto-data.net/en/allbrands", config.BrandsURL())
	assert.Equal(t, 3, config.ConcurrencyLimit)
	assert.Equal(t, 10, config.BatchSize)
	assert.Equal(t, 10*time.Second, config.BatchDelay)
	assert.Equal(t, 8*time.Second, config.ModelDelay)
	assert.Equal(t, 6*time.Second, config.GenDelay)
	assert.Equal(t, 4*time.Second, config.CarDelay)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, 500*time.Second, config.RateLimitBlock)
	assert.Equal(t, "0 2 1 * *", config.CrawlSchedule)
	assert.True(t, config.RunOnStartup)
	assert.Empty(t, config.RedisAddr)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("BASE_URL", "http://localhost:9999/")
	t.Setenv("CONCURRENCY_LIMIT", "5")
	t.Setenv("BATCH_DELAY_SECONDS", "0")
	t.Setenv("RUN_ON_STARTUP", "false")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("FETCH_RETRIES", "not-a-number")

	config = LoadConfig()
	assert.Equal(t, "http://localhost:9999", config.BaseURL)
	assert.Equal(t, 5, config.ConcurrencyLimit)
	assert.Equal(t, time.Duration(0), config.BatchDelay)
	assert.False(t, config.RunOnStartup)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 2, config.FetchRetries)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero concurrency", func(c *Config) { c.ConcurrencyLimit = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative retries", func(c *Config) { c.FetchRetries = -1 }},
		{"negative delay", func(c *Config) { c.CarDelay = -time.Second }},
		{"bad schedule", func(c *Config) { c.CrawlSchedule = "every month" }},
		{"no base url", func(c *Config) { c.BaseURL = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := LoadConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
		})
	}
}

func TestLoadLocators(t *testing.T) {
	locators, err := LoadLocators("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLocators(), locators)

	path := filepath.Join(t.TempDir(), "locators.yaml")
	content := `
brand:
  list: "div.all-brands > a"
car_spec:
  rows: "table.specs tr"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	locators, err = LoadLocators(path)
	require.NoError(t, err)
	assert.Equal(t, "div.all-brands > a", locators.Brand.List)
	assert.Equal(t, "strong", locators.Brand.Title)
	assert.Equal(t, "table.specs tr", locators.CarSpec.Rows)
	assert.Equal(t, "h1", locators.CarSpec.Title)

	_, err = LoadLocators(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}
