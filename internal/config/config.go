package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	// Store backend: "file" (default) or "postgres".
	StoreBackend string
	DataDir      string
	DBURL        string

	// Redis (queued alert delivery).
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AlertQueueKey string

	// Notifier mode: "log" (default) or "queue".
	NotifierMode string

	// Browser origins allowed to call the API. Empty means no CORS
	// headers are emitted.
	AllowedOrigins []string

	// Reserved admin account, bootstrapped at startup.
	AdminEmail    string
	AdminPassword string
	AdminName     string

	OTLPEndpoint string
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)

	return Config{
		Env:  env,
		Port: port,

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DBURL:        buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		AlertQueueKey: getEnv("ALERT_QUEUE_KEY", "safecheck:alerts"),

		NotifierMode: getEnv("NOTIFIER_MODE", "log"),

		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@aila.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Aila@123"),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "safecheck")
	pass := getEnv("DB_PASSWORD", "safecheck")
	name := getEnv("DB_NAME", "safecheck")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("ignoring non-integer env value", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}
