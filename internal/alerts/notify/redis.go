package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultStream = "careflow:notifications"

// RedisStreamNotifier appends each notification to a Redis stream with XADD. The
// stream is capped approximately at maxLen entries.
type RedisStreamNotifier struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewRedisStreamNotifier(client redis.Cmdable, stream string, maxLen int64) *RedisStreamNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = 10_000
	}
	return &RedisStreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

func (r *RedisStreamNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := n.encode()
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{
			"alert_id": n.AlertID,
			"severity": n.Severity,
			"data":     string(body),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}
