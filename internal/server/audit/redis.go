package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// StreamAdder is the part of *redis.Client the sink needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends thoughts to a Redis stream, one entry per thought.
type RedisSink struct {
	client StreamAdder
	stream string
	maxLen int64
}

func NewRedisSink(client StreamAdder, stream string) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: 100_000}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, thought *models.Thought) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":       thought.ID,
			"username": thought.Username,
			"thought":  thought.Thought,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd %s: %w", s.stream, err)
	}
	return nil
}

// NewRedisClient connects and pings once so a wrong address fails at startup.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return client, nil
}
