// Command server boots the assistant backend: it loads configuration,
// initializes logging and tracing, opens the SQLite store, builds the
// listing index, wires the HTTP API, and runs the server with graceful
// shutdown.
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

	_ "github.com/propadvisor/go-assistant-backend/docs" // swagger spec registration
	"github.com/propadvisor/go-assistant-backend/internal/config"
	httpapi "github.com/propadvisor/go-assistant-backend/internal/http"
	"github.com/propadvisor/go-assistant-backend/internal/observability"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
	"github.com/propadvisor/go-assistant-backend/internal/search"
	"github.com/propadvisor/go-assistant-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database failed")
	}

	idx := buildIndex(cfg)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, idx, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildIndex loads the retrieval index. A missing or unreadable source is
// not fatal: the pipeline degrades to template replies without retrieval.
func buildIndex(cfg config.Config) search.Index {
	idx, err := search.NewIndexFromFile(cfg.ListingsPath)
	if err == nil {
		log.Info().Str("path", cfg.ListingsPath).Msg("listing index loaded")
		return idx
	}
	log.Warn().Err(err).Str("path", cfg.ListingsPath).Msg("listing index unavailable")

	if cfg.KnowledgePath != "" {
		idx, kerr := search.NewIndexFromMarkdown(cfg.KnowledgePath)
		if kerr == nil {
			log.Info().Str("path", cfg.KnowledgePath).Msg("knowledge index loaded")
			return idx
		}
		log.Warn().Err(kerr).Str("path", cfg.KnowledgePath).Msg("knowledge index unavailable")
	}
	return nil
}
