package publisher

import "context"

// Publisher represents a service for publishing crawl events
type Publisher interface {
	// Publish appends a message to the stream under key
	Publish(ctx context.Context, key string, message []byte) error

	// Trim trims the stream to the configured maximum length
	Trim(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
