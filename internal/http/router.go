package http

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ailahq/safecheck/internal/http/handlers"
	"github.com/ailahq/safecheck/internal/http/middlewares"
	"github.com/ailahq/safecheck/internal/observability"
)

// Deps collects everything the router wires together. All service
// fields are the small consumer-side interfaces the handlers declare.
type Deps struct {
	Log      *slog.Logger
	Prom     *observability.Prom
	Identity interface {
		handlers.IdentityService
		handlers.UserAdmin
	}
	Contacts handlers.ContactBook
	Messages handlers.MessageBox
	Checkin  handlers.CheckinEngine

	// AllowedOrigins enables CORS for the listed browser origins.
	AllowedOrigins []string

	// Ping probes the store backend for readiness; nil skips the probe.
	Ping func() error
}

func NewRouter(deps Deps) *gin.Engine {
	cfgEnv := os.Getenv("APP_ENV")

	if cfgEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("safecheck"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	if len(deps.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(deps.AllowedOrigins))
	}
	r.Use(middlewares.MaxBodyBytes(64 << 10))
	r.Use(middlewares.RequireJSON())
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Identity)
	contactsHandler := handlers.NewContactsHandler(deps.Contacts)
	checkinHandler := handlers.NewCheckinHandler(deps.Checkin)
	messagesHandler := handlers.NewMessagesHandler(deps.Messages)
	adminHandler := handlers.NewAdminHandler(deps.Identity)

	principal := middlewares.NewPrincipal(deps.Identity)

	// credential guessing gets throttled; everything else is fine
	authLimiter := middlewares.NewRateLimiter(10, time.Minute)

	// public
	r.POST("/auth/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	r.POST("/auth/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	r.POST("/auth/logout", authHandler.Logout)
	r.POST("/messages", messagesHandler.Create)

	// signed-in users
	authed := r.Group("/", principal.RequireUser())
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/contacts", contactsHandler.List)
	authed.POST("/contacts", contactsHandler.Create)
	authed.PUT("/contacts/:id", contactsHandler.Update)
	authed.DELETE("/contacts/:id", contactsHandler.Delete)

	authed.GET("/checkin", checkinHandler.Get)
	authed.GET("/checkin/durations", checkinHandler.Durations)
	authed.POST("/checkin/start", checkinHandler.Start)
	authed.POST("/checkin/cancel", checkinHandler.Cancel)
	authed.POST("/checkin/dismiss", checkinHandler.Dismiss)

	// admin
	admin := authed.Group("/admin", principal.RequireAdmin())
	admin.GET("/users", adminHandler.ListUsers)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/messages", messagesHandler.List)

	return r
}
