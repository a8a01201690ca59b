package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ledgerlink/backend/internal/config"
	"github.com/ledgerlink/backend/internal/database"
	"github.com/ledgerlink/backend/internal/handlers"
	mW "github.com/ledgerlink/backend/internal/middleware"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/repository"
	"github.com/ledgerlink/backend/internal/services"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to set up schema")
	}

	repo := repository.NewPostgres(db, logger)

	postingService := services.NewPostingService(repo, logger)
	readService := services.NewReadService(repo, logger)
	ledgerService := services.NewLedgerService(repo, repo, logger)
	apiKeyService := services.NewApiKeyService(repo, logger)

	if cfg.Bootstrap.Enabled() {
		result, err := apiKeyService.BootstrapInitialAdmin(ctx, models.BootstrapInput{
			TenantName: cfg.Bootstrap.TenantName,
			KeyName:    cfg.Bootstrap.KeyName,
			RawApiKey:  cfg.Bootstrap.RawApiKey,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("bootstrap failed")
		}
		if result.Created {
			logger.Info().Str("tenant_id", result.TenantID).Msg("initial admin key provisioned")
		}
	}

	ledgerHandler := handlers.NewLedgerHandler(ledgerService, readService)
	accountHandler := handlers.NewAccountHandler(ledgerService)
	postingHandler := handlers.NewPostingHandler(postingService)
	readHandler := handlers.NewReadHandler(readService)
	apiKeyHandler := handlers.NewApiKeyHandler(apiKeyService)
	healthHandler := handlers.NewHealthHandler(db)

	r := chi.NewRouter()

	r.Use(mW.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mW.Auth(apiKeyService))

		r.Post("/ledgers", ledgerHandler.Create)
		r.Get("/ledgers", ledgerHandler.List)
		r.Get("/ledgers/{id}", ledgerHandler.Get)
		r.Get("/ledgers/{ledger_id}/trial-balance", ledgerHandler.TrialBalance)

		r.Post("/accounts", accountHandler.Create)
		r.Get("/accounts", readHandler.ListAccounts)

		r.Post("/transactions", postingHandler.Create)
		r.Get("/transactions", readHandler.ListTransactions)

		r.Get("/entries", readHandler.ListEntries)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mW.RequireAdmin)

			r.Post("/api-keys", apiKeyHandler.Create)
			r.Get("/api-keys", apiKeyHandler.List)
			r.Post("/api-keys/{id}/revoke", apiKeyHandler.Revoke)
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shut down")
	}

	logger.Info().Msg("server stopped")
}
