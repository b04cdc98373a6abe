// Command go-venture-backend runs the venture workflow API server.
//
// Startup order: environment (.env optional) → config → logging → database
// (migrated) → LLM gateway (live or offline) → tracing → HTTP router →
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/venturekit/go-venture-backend/internal/config"
	httpapi "github.com/venturekit/go-venture-backend/internal/http"
	"github.com/venturekit/go-venture-backend/internal/llm"
	"github.com/venturekit/go-venture-backend/internal/observability"
	"github.com/venturekit/go-venture-backend/internal/repo"
	"github.com/venturekit/go-venture-backend/internal/sysutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// .env is optional; real deployments use the process environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Live client when a credential is configured, deterministic offline
	// client otherwise.
	var client llm.Client
	if cfg.LLM.APIKey != "" {
		client = llm.NewOpenAIClient(cfg.LLM.Endpoint, cfg.LLM.APIKey)
		log.Info().Str("chat_model", cfg.LLM.ChatModel).Str("generation_model", cfg.LLM.GenerationModel).Msg("llm: live client")
	} else {
		client = llm.NewMockClient()
		log.Warn().Msg("llm: no API key configured, running in offline mode")
	}
	policy := llm.DefaultPolicy()
	policy.MaxAttempts = cfg.LLM.MaxRetries
	gateway := llm.NewGateway(client, llm.GatewayOptions{
		Policy:          policy,
		Timeout:         cfg.LLM.Timeout,
		ChatModel:       cfg.LLM.ChatModel,
		GenerationModel: cfg.LLM.GenerationModel,
		MaxTokens:       cfg.LLM.MaxTokens,
	})

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, gateway, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", Version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
