package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ailahq/safecheck/internal/config"
	"github.com/ailahq/safecheck/internal/notifications"
	"github.com/ailahq/safecheck/internal/observability"
	"github.com/ailahq/safecheck/internal/queue/redisclient"
	"github.com/ailahq/safecheck/internal/queue/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)
	prom := observability.NewProm(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rc.Close()

	pingCtx, cancel := config.WithTimeout(3 * time.Second)
	err := rc.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		QueueKey:    cfg.AlertQueueKey,
		PopTimeout:  2 * time.Second,
		SendTimeout: 10 * time.Second,
	}, rc.Raw(), notifications.NewLogNotifier(log), prom, log)

	log.Info("alert worker started", "queue", cfg.AlertQueueKey)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
