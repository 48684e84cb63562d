// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/fubuki/internal/anilist"
	"github.com/starford/fubuki/internal/api"
	"github.com/starford/fubuki/internal/mcpserver"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/queue"
	"github.com/starford/fubuki/internal/recognition"
	"github.com/starford/fubuki/internal/settings"
	"github.com/starford/fubuki/internal/sse"
	"github.com/starford/fubuki/internal/store"
	"github.com/starford/fubuki/internal/tracker"
	"github.com/starford/fubuki/internal/windows"
)

// KindPatternsReloaded is published after the pattern files were recompiled.
const KindPatternsReloaded = "patterns.reloaded"

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logger. MCP mode keeps stdout for the protocol.
	logOut := app.logOut
	if logOut == nil {
		logOut = os.Stdout
		if app.mode == ModeMCP {
			logOut = os.Stderr
		}
	}
	logger := NewLogger(logOut, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("patterns", cfg.Recognition.Patterns),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("update_delay_seconds", cfg.Queue.UpdateDelaySeconds),
		slog.Bool("has_token", cfg.AniList.Token != ""),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt := settings.New(cfg.Queue.UpdateDelaySeconds, cfg.AniList.Token)

	lock, err := acquireLock(lockPath(cfg.SQLite.Path))
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	// Initialize SQLite store.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Compile recognition patterns.
	src := cfg.Recognition.Source()
	rec, err := src.Build(logger)
	if err != nil {
		return fmt.Errorf("load patterns: %w", err)
	}
	holder := recognition.NewHolder(rec)
	logger.Info("patterns: loaded",
		slog.Int("anime", rec.Catalog().Len(models.CategoryAnime)),
		slog.Int("manga", rec.Catalog().Len(models.CategoryManga)))

	win := app.windows
	if win == nil {
		win = windows.NewCommand(windows.WithCommand(cfg.Recognition.WindowCommand))
	}

	client := anilist.New(cfg.AniList.Client(), rt, anilist.WithLogger(logger))

	// SSE broker.
	broker := sse.NewBroker(sse.DefaultHeartbeat)
	defer broker.Close()

	engine := tracker.New(client, win, holder, queue.New(rt, time.Now),
		tracker.WithStore(db),
		tracker.WithLogger(logger),
		tracker.WithNotifier(broker.Notify),
		tracker.WithInterval(cfg.Recognition.Interval))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return engine.Run(gCtx)
	})

	// Pattern hot reload.
	if cfg.Recognition.Watch {
		g.Go(func() error {
			err := recognition.Watch(gCtx, src, holder, logger, func(r *recognition.Recognizer) {
				broker.Notify(KindPatternsReloaded, map[string]int{
					"anime": r.Catalog().Len(models.CategoryAnime),
					"manga": r.Catalog().Len(models.CategoryManga),
				})
			})
			if err != nil {
				// Recognition keeps working with the loaded patterns.
				logger.Warn("patterns: watch failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	switch app.mode {
	case ModeMCP:
		srv := mcpserver.New(engine, holder, rt, app.version)
		g.Go(func() error {
			defer cancel()
			logger.Info("Starting MCP server on stdio")
			if err := srv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	default:
		serveHTTP(g, gCtx, cancel, cfg, logger, newRouter(cfg, engine, db, rt, broker))
	}

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// NewLogger returns the JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func newRouter(cfg *Config, engine *tracker.Engine, db store.Store, rt *settings.Settings, broker *sse.Broker) http.Handler {
	h := api.NewHandler(engine, db, rt)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		status, err := engine.Status(ctx)
		switch {
		case err != nil:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"tracker unavailable"}`))
		case db.Ping() != nil:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"database unavailable"}`))
		case !status.Ready():
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"lists not loaded"}`))
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)
	return r
}

func serveHTTP(g *errgroup.Group, ctx context.Context, stop context.CancelFunc, cfg *Config, logger *slog.Logger, handler http.Handler) {
	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with the run so SSE streams close on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-ctx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		// Stops the tracker and watcher goroutines too.
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})
}
