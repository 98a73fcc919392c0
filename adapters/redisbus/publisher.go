// Package redisbus publishes fired intents to a Redis stream so other
// processes can react to voice commands without holding the terminal session.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
)

const (
	intentStream = "lvtbridge:intents"
	maxStreamLen = 1000
)

// Publisher writes fired intents to a capped Redis stream.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher connects to Redis at the given URL and verifies the
// connection.
func NewPublisher(ctx context.Context, url string, logger *zap.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", opts.Addr))
	return &Publisher{client: client, logger: logger}, nil
}

// Publish appends a fired intent to the stream.
func (p *Publisher) Publish(ctx context.Context, fired entities.FiredIntent) error {
	data, err := json.Marshal(fired.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal intent data: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: intentStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"intent":     fired.Intent,
			"terminal":   fired.Terminal,
			"importance": fired.Importance,
			"data":       string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish intent %s: %w", fired.Intent, err)
	}

	p.logger.Debug("Published intent event",
		zap.String("intent", fired.Intent),
		zap.String("terminal", fired.Terminal))
	return nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
