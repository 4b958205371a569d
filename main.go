package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tube-indexer/api"
	"tube-indexer/auth"
	"tube-indexer/config"
	"tube-indexer/logger"
	"tube-indexer/provider"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		config.PrintConfigHelp()
		os.Exit(1)
	}

	logger.Init(cfg.DebugMode)
	auth.Configure(cfg.APIKey)

	slog.Info("--- Torznab Gateway Starting Up ---",
		"log_level", ifThen(cfg.DebugMode, "DEBUG", "INFO"))
	slog.Info("Add this as a generic Torznab indexer",
		"url", fmt.Sprintf("http://localhost:%s", cfg.AppPort),
		"api_path", "/api",
		"apikey", cfg.APIKey,
		"categories", "5000 (TV)")

	searcher := buildProvider(cfg)
	slog.Info("Search provider selected", "provider", searcher.Name(), "available", searcher.Available())

	apiHandler := api.NewHandler(searcher, cfg)

	// --- Scheduler setup ---
	c := cron.New()
	if _, err := c.AddFunc(cfg.HealthProbeSchedule, func() {
		up := searcher.Available()
		if up != apiHandler.ProviderAvailable() {
			slog.Warn("Provider availability changed", "provider", searcher.Name(), "available", up)
		}
		apiHandler.MarkProviderAvailable(up)
	}); err != nil {
		slog.Warn("Could not schedule provider health probe", "schedule", cfg.HealthProbeSchedule, "error", err)
	} else {
		c.Start()
	}

	// --- API Server Setup ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api", apiHandler.Torznab)
	r.Get("/download", apiHandler.Torznab)
	r.Get("/download/*", apiHandler.Torznab)
	r.Get("/health", apiHandler.HealthCheck)

	if cfg.WebLogEnabled {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Get("/logs", logger.StreamHandler)
		})
	}

	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.AppHost, cfg.AppPort),
		Handler: r,
	}
	startServer(server, c, cfg)
}

// buildProvider selects the search strategy from configuration. Auto prefers
// yt-dlp when the binary is installed and falls back to page scraping.
func buildProvider(cfg *config.ConfigOptions) provider.Searcher {
	switch cfg.Provider {
	case config.ProviderYtDlp:
		return provider.NewYtDlp(cfg.YtDlpPath, cfg.SearchTimeout)
	case config.ProviderScrape:
		return provider.NewScraper(cfg.SearchTimeout, cfg.DebugMode)
	default:
		ytdlp := provider.NewYtDlp(cfg.YtDlpPath, cfg.SearchTimeout)
		if ytdlp.Available() {
			return ytdlp
		}
		slog.Warn("yt-dlp not found, falling back to page scraping", "path", cfg.YtDlpPath)
		return provider.NewScraper(cfg.SearchTimeout, cfg.DebugMode)
	}
}

// startServer handles graceful shutdown
func startServer(server *http.Server, scheduler *cron.Cron, cfg *config.ConfigOptions) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	sig := <-sigChan
	slog.Info("Received signal, shutting down gracefully", "signal", sig)

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	} else {
		slog.Info("Server shutdown completed")
	}

	slog.Info("Application shutdown complete")
}

// ifThen is a simple ternary helper
func ifThen[T any](condition bool, a, b T) T {
	if condition {
		return a
	}
	return b
}
