package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport-level failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeStatus represents a non-success HTTP response
	ErrorTypeStatus ErrorType = "status"
	// ErrorTypeTimeout represents a fetch that exceeded its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypePersistence represents failures writing the crawl result
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError is the error type shared by the fetcher, the crawl and its collaborators
type ScrapeError struct {
	Type       ErrorType
	URL        string
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	target := e.URL
	if target == "" {
		target = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, target, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, target, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the same request may succeed.
// Server-side failures (5xx) count as transient; 4xx do not.
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	case ErrorTypeStatus:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new network error
func NewFetch(url, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, url, message, err)
}

// NewStatus creates an error for an unexpected response status
func NewStatus(url string, statusCode int) *ScrapeError {
	e := New(ErrorTypeStatus, url, fmt.Sprintf("unexpected status code: %d", statusCode), nil)
	e.StatusCode = statusCode
	return e
}

// NewTimeout creates an error for a fetch that ran past its deadline
func NewTimeout(url string, err error) *ScrapeError {
	return New(ErrorTypeTimeout, url, "request deadline exceeded", err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(url string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	e := New(ErrorTypeRateLimit, url, message, nil)
	e.RetryAfter = duration
	return e
}

// RetryAfter returns the wait a rate-limited server asked for, or zero
func RetryAfter(err error) time.Duration {
	var scrapeErr *ScrapeError
	if stderrors.As(err, &scrapeErr) && scrapeErr.Type == ErrorTypeRateLimit {
		return scrapeErr.RetryAfter
	}
	return 0
}

// NewParsing creates a new parsing error
func NewParsing(url, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, url, message, err)
}

// NewPersistence creates a new persistence error
func NewPersistence(path, message string, err error) *ScrapeError {
	return New(ErrorTypePersistence, path, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(stream, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, stream, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err wraps a ScrapeError of the given type
func IsType(err error, errType ErrorType) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type == errType
	}
	return false
}

// IsRetryable reports whether err wraps a retryable ScrapeError
func IsRetryable(err error) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}
