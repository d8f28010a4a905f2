package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ailahq/safecheck/internal/checkin"
	"github.com/ailahq/safecheck/internal/clock"
	"github.com/ailahq/safecheck/internal/config"
	"github.com/ailahq/safecheck/internal/contacts"
	httpx "github.com/ailahq/safecheck/internal/http"
	"github.com/ailahq/safecheck/internal/identity"
	"github.com/ailahq/safecheck/internal/messages"
	"github.com/ailahq/safecheck/internal/notifications"
	"github.com/ailahq/safecheck/internal/observability"
	"github.com/ailahq/safecheck/internal/queue/redisclient"
	"github.com/ailahq/safecheck/internal/store"
	filestore "github.com/ailahq/safecheck/internal/store/file"
	pgstore "github.com/ailahq/safecheck/internal/store/postgres"
)

func main() {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), "safecheck-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	st, ping, err := openStore(cfg, prom)
	if err != nil {
		log.Error("store open failed", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}

	clk := clock.NewSystem()

	identitySvc := identity.NewService(st, clk, log, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	contactBook := contacts.NewService(st, log)
	messageBox := messages.NewService(st, clk, log)

	bootCtx, cancel := config.WithTimeout(5 * time.Second)
	err = identitySvc.BootstrapAdmin(bootCtx)
	cancel()
	if err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}

	notifier, closeNotifier := buildNotifier(cfg, log)
	defer closeNotifier()

	engine := checkin.NewManager(contactBook, notifier, clk, prom, log)

	router := httpx.NewRouter(httpx.Deps{
		Log:            log,
		Prom:           prom,
		Identity:       identitySvc,
		Contacts:       contactBook,
		Messages:       messageBox,
		Checkin:        engine,
		AllowedOrigins: cfg.AllowedOrigins,
		Ping:           ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStore(cfg config.Config, prom *observability.Prom) (*store.Store, func() error, error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := pgstore.NewPool(cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		st, err := pgstore.Open(ctx, pool, prom)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		ping := func() error {
			pctx, pcancel := config.WithTimeout(1 * time.Second)
			defer pcancel()
			return pool.Ping(pctx)
		}
		return st, ping, nil

	default:
		st, err := filestore.Open(cfg.DataDir)
		return st, nil, err
	}
}

func buildNotifier(cfg config.Config, log *slog.Logger) (notifications.Notifier, func()) {
	if cfg.NotifierMode == "queue" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		queue := notifications.NewQueueNotifier(rc.Raw(), cfg.AlertQueueKey)

		// fail fast when redis is down instead of stalling the trigger path
		protected := notifications.NewProtectedNotifier(queue, notifications.ProtectedNotifierConfig{})

		return protected, func() { _ = rc.Close() }
	}

	return notifications.NewLogNotifier(log), func() {}
}
