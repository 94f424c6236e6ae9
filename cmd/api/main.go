package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"seven-oz-loyalty/internal/claimcode"
	"seven-oz-loyalty/internal/config"
	"seven-oz-loyalty/internal/handler"
	"seven-oz-loyalty/internal/router"
	"seven-oz-loyalty/internal/service"
	"seven-oz-loyalty/internal/store"
	"seven-oz-loyalty/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().
		Str("store_backend", cfg.Store.Backend).
		Msg("starting seven-oz-loyalty API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := tracing.Init(ctx, cfg.Tracing); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	// Initialize the card store
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", cfg.Store.Backend, err)
	}
	defer closeStore()

	generator, err := claimcode.NewRandomGenerator(cfg.Claim.CodeLength)
	if err != nil {
		return fmt.Errorf("failed to initialize claim code generator: %w", err)
	}

	var idPattern *regexp.Regexp
	if cfg.Claim.CustomerIDPattern != "" {
		// Already validated by config.Load.
		idPattern = regexp.MustCompile(cfg.Claim.CustomerIDPattern)
	}

	// Initialize services
	issuer := claimcode.NewIssuer(generator, logger)
	cardService := service.NewCardService(repo, service.CardServiceOptions{
		Timeout:         cfg.Store.Timeout,
		AtomicIncrement: cfg.Store.AtomicIncrement,
	}, logger)
	claimService := service.NewClaimService(issuer, cardService, idPattern, logger)

	// Initialize HTTP handlers
	codeHandler := handler.NewCodeHandler(claimService, logger)
	cardHandler := handler.NewCardHandler(claimService, logger)

	// Initialize router
	mux := router.New(codeHandler, cardHandler, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
