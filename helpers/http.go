package helpers

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"slices"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"sjsage522/carspecworker/pkg/errors"
)

// HTTP header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}
)

// FetchPage sends a GET request with randomized browser-like headers and
// returns the body converted to UTF-8. The request is bound to ctx, so a
// deadline on ctx cancels the in-flight call. Failures are *errors.ScrapeError
// values of type network, timeout, status or rate_limit.
func FetchPage(ctx context.Context, client *http.Client, url string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetch(url, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[rand.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, url, err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, errors.NewRateLimit(url, retryAfter(resp.Header.Get("Retry-After")))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewStatus(url, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, url, err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, errors.NewParsing(url, "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}

func classifyTransportError(ctx context.Context, url string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewTimeout(url, err)
	}
	return errors.NewFetch(url, "failed to fetch URL", err)
}

// retryAfter parses a Retry-After header given in seconds
func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
