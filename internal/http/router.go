// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/config"
	"github.com/venturekit/go-venture-backend/internal/http/handlers"
	"github.com/venturekit/go-venture-backend/internal/http/middleware"
	"github.com/venturekit/go-venture-backend/internal/prompt"
	"github.com/venturekit/go-venture-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS, health and metrics endpoints, and then mounts the versioned public
// API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. Compression and CORS
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gateway services.Completer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/gateway/config
	ventureSvc := &services.VentureService{
		DB:         db,
		MaxPerUser: cfg.MaxVenturesPerUser,
		NameMaxLen: 80,
	}
	gateSvc := services.NewGateService(db)
	quotaSvc := services.NewQuotaService(db, cfg.Quota.DailyLimit)
	artifactSvc := services.NewArtifactService(db)
	copilotSvc := &services.CopilotService{
		DB:             db,
		LLM:            gateway,
		Quota:          quotaSvc,
		ChatCost:       cfg.Quota.ChatCost,
		GenerateCost:   cfg.Quota.GenerateCost,
		MaxPromptRunes: cfg.Prompt.MaxPromptRunes,
		Budgets: prompt.Budgets{
			ArtifactTokens: cfg.Prompt.ArtifactTokens,
			HistoryTokens:  cfg.Prompt.HistoryTokens,
		},
		TitleLocale: language.English,
		TitleMaxLen: 60,
	}

	h := handlers.New(ventureSvc, gateSvc, copilotSvc, artifactSvc, quotaSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Ventures
		api.POST("/ventures", h.CreateVenture)
		api.GET("/ventures", h.ListVentures)
		api.GET("/ventures/:id", h.GetVenture)
		api.PATCH("/ventures/:id", h.UpdateVenture)

		// Phases and gates
		api.GET("/ventures/:id/phases", h.ListPhases)
		api.POST("/ventures/:id/phases/:n/evaluate", h.EvaluateGate)
		api.POST("/ventures/:id/phases/:n/unlock", h.ForceUnlock)
		api.PUT("/ventures/:id/phases/:n/gates/:key", h.UpdateGate)

		// Artifacts
		api.POST("/ventures/:id/artifacts", h.CreateArtifact)
		api.GET("/ventures/:id/artifacts", h.ListArtifacts)
		api.GET("/ventures/:id/artifacts/:aid", h.GetArtifact)
		api.PUT("/ventures/:id/artifacts/:aid", h.UpdateArtifact)
		api.GET("/ventures/:id/artifacts/:aid/versions", h.ListArtifactVersions)
		api.POST("/ventures/:id/artifacts/generate", h.GenerateArtifact)

		// Copilot
		api.POST("/ventures/:id/chat", h.Chat)
		api.GET("/ventures/:id/chat/history", h.ChatHistory)

		// Quota
		api.GET("/rate-limit", h.RateLimit)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
