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
	"path"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/prentissw/chartedroots/internal/api"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/index"
	"github.com/prentissw/chartedroots/internal/models"
	"github.com/prentissw/chartedroots/internal/sse"
	"github.com/prentissw/chartedroots/internal/storage"
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

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("auto_regenerate", cfg.Timeline.AutoRegenerate))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build the export stack; every write is announced to SSE clients.
	services, err := NewServices(cfg, logger, exportservice.WithNotifier(func(kind string, res exportservice.Result) {
		broker.Publish(sse.Event{Type: kind, Data: res})
	}))
	if err != nil {
		return err
	}
	defer services.Close()

	apiRouter := api.NewRouter(services.Timelines, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	gCtx, stop := context.WithCancel(gCtx)
	defer stop()

	var regen *autoRegenerator
	if cfg.Timeline.AutoRegenerate {
		regen = newAutoRegenerator(services.Timelines.RegenerateAll, cfg.Timeline.RegenerateDebounce, logger)
		g.Go(func() error { return regen.Run(gCtx) })
	}

	// Start file watcher; event and person note changes go to SSE clients
	// and the auto-regenerator.
	g.Go(func() error {
		return index.Watch(gCtx, services.DB, services.Store, cfg.Timeline.Namespace, logger, func(kind, p string) {
			if !affectsTimelines(services.DB, kind, p) {
				return
			}
			broker.PublishChange(kind, p)
			if regen != nil {
				regen.Notify()
			}
		})
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
		stop()
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
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

// affectsTimelines reports whether a watcher change can affect timelines.
// Event notes are laid out directly and person notes supply the names that
// key grouped and Gantt rows. The kind of a deleted note is no longer known,
// so every Markdown deletion counts.
func affectsTimelines(db *index.DB, kind, p string) bool {
	if path.Ext(p) != storage.ExtMarkdown {
		return false
	}
	if kind == index.ChangeDeleted {
		return true
	}
	n, err := db.GetNote(p)
	return err == nil && (n.Kind == models.KindEvent || n.Kind == models.KindPerson)
}
