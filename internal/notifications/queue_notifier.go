package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// QueueNotifier hands alerts to an out-of-process delivery worker via
// a Redis list. Send is just the enqueue; the worker owns the actual
// provider call.
type QueueNotifier struct {
	rdb *redis.Client
	key string
}

func NewQueueNotifier(rdb *redis.Client, key string) *QueueNotifier {
	return &QueueNotifier{rdb: rdb, key: key}
}

func (n *QueueNotifier) SendAlert(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	if err := n.rdb.LPush(ctx, n.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue alert: %w", err)
	}
	return nil
}
