// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/slatehq/slate/internal/ai"
	"github.com/slatehq/slate/internal/api"
	"github.com/slatehq/slate/internal/autosave"
	"github.com/slatehq/slate/internal/collection"
	"github.com/slatehq/slate/internal/index"
	"github.com/slatehq/slate/internal/mcpserver"
	"github.com/slatehq/slate/internal/noteservice"
	"github.com/slatehq/slate/internal/sse"
	"github.com/slatehq/slate/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("collection_path", cfg.Data.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("ai_enabled", cfg.AI.Active()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open the note collection.
	store, err := collection.Open(cfg.Data.Path, logger)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}

	// Initialize SQLite search index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Text generation capability is optional. Missing credentials only
	// disable it; every dependent operation has a local fallback.
	var gen ai.Generator
	if cfg.AI.Active() {
		oa, err := ai.NewOpenAI(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, logger)
		if err != nil {
			logger.Warn("AI capability unavailable", slog.String("error", err.Error()))
		} else {
			gen = oa
		}
	} else {
		logger.Info("AI capability disabled, using local fallbacks")
	}

	// Debounced autosave writing the collection file. onSaved is set once
	// the SSE broker exists; in MCP mode it stays nil.
	var onSaved func()
	saver := autosave.New(cfg.Data.AutosaveDelay(), func() error {
		if err := store.Save(); err != nil {
			return err
		}
		if onSaved != nil {
			onSaved()
		}
		return nil
	}, logger)
	defer saver.Close()

	svc := noteservice.NewService(store, db, gen, saver, logger)

	// Rebuild the derived index from the collection on startup.
	if err := svc.RebuildIndex(); err != nil {
		logger.Warn("initial index rebuild failed", slog.String("error", err.Error()))
	}

	if app.mcp {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	svc.SetEventCallback(broker.PublishNoteEvent)
	onSaved = func() { broker.PublishCollectionEvent("collection.saved") }

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the collection file for external edits.
	g.Go(func() error {
		return watch.Run(gCtx, cfg.Data.Path, func() {
			n, err := store.Reload()
			if err != nil {
				logger.Warn("collection reload failed", slog.String("error", err.Error()))
				return
			}
			if err := svc.RebuildIndex(); err != nil {
				logger.Warn("index rebuild failed", slog.String("error", err.Error()))
			}
			broker.PublishCollectionEvent("collection.reloaded")
			logger.Info("collection reloaded", slog.Int("notes", n))
		}, logger)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Flush any pending edits before exit.
		if err := saver.Flush(); err != nil {
			logger.Error("final save failed", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
