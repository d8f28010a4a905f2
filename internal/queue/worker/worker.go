// Package worker drains queued alerts from the Redis list the
// QueueNotifier feeds and hands each one to a delivery Notifier.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ailahq/safecheck/internal/notifications"
	"github.com/ailahq/safecheck/internal/observability"
)

type Config struct {
	QueueKey    string
	PopTimeout  time.Duration // BRPOP block interval
	SendTimeout time.Duration // per-delivery budget
}

type Worker struct {
	cfg      Config
	rdb      *redis.Client
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger
}

func New(cfg Config, rdb *redis.Client, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 2 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Worker{cfg: cfg, rdb: rdb, notifier: notifier, prom: prom, log: log}
}

// Run blocks until ctx is cancelled, delivering alerts as they arrive.
// Redis hiccups are retried with backoff instead of killing the loop.
func (w *Worker) Run(ctx context.Context) error {
	attempt := 0

	for {
		if ctx.Err() != nil {
			w.log.Info("worker received shutdown signal")
			return nil
		}

		_, err := w.ProcessOne(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			attempt++
			delay := ExponentialBackoff(attempt)
			w.log.Error("queue pop failed", "err", err, "retry_in", delay)

			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			continue
		}

		attempt = 0
	}
}

// ProcessOne pops and delivers a single alert. It reports whether
// anything was waiting on the queue.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	res, err := w.rdb.BRPop(ctx, w.cfg.PopTimeout, w.cfg.QueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	// BRPop returns [key, value]
	if len(res) != 2 {
		return false, nil
	}

	var alert notifications.Alert
	if err := json.Unmarshal([]byte(res[1]), &alert); err != nil {
		// poison payload: log and drop, never wedge the queue
		w.log.Error("undecodable alert dropped", "err", err)
		if w.prom != nil {
			w.prom.AlertsTotal.WithLabelValues("failed").Inc()
		}
		return true, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.SendTimeout)
	defer cancel()

	if err := w.notifier.SendAlert(sendCtx, alert); err != nil {
		w.log.Error("alert delivery failed",
			"contact_id", alert.ContactID,
			"user_id", alert.UserID,
			"err", err,
		)
		if w.prom != nil {
			w.prom.AlertsTotal.WithLabelValues("failed").Inc()
		}
		return true, nil
	}

	if w.prom != nil {
		w.prom.AlertsTotal.WithLabelValues("sent").Inc()
	}
	return true, nil
}
