package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"

	"sjsage522/carspecworker/logger"
	"sjsage522/carspecworker/pkg/errors"
)

// RedisPublisher implements Publisher on a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks that Redis is reachable
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return errors.NewPublisher(p.stream, "redis unreachable", err)
	}
	return nil
}

// Publish publishes a message to the Redis stream
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Result()
	if err != nil {
		return errors.NewPublisher(p.stream, "failed to add stream entry", err)
	}

	p.log.Debug().Str("stream", p.stream).Str("id", id).Str("key", key).Msg("Published")
	return nil
}

// Trim trims the stream to the configured maximum length
func (p *RedisPublisher) Trim(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	if err := p.client.XTrimMaxLen(ctx, p.stream, int64(p.streamMaxLength)).Err(); err != nil {
		return errors.NewPublisher(p.stream, "failed to trim stream", err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
