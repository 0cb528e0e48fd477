// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ceylonix/internal/api"
	"github.com/starford/ceylonix/internal/mcpserver"
	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/notify"
	"github.com/starford/ceylonix/internal/ratelimit"
	"github.com/starford/ceylonix/internal/siteservice"
	"github.com/starford/ceylonix/internal/sse"
	"github.com/starford/ceylonix/internal/store"
	"github.com/starford/ceylonix/internal/watch"
)

// selfWriteWindow is how long after one of our own saves a file event is ignored.
const selfWriteWindow = 2 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	return app, nil
}

// runtime holds everything built from the config that both commands share.
type runtime struct {
	fs       *store.FS // nil unless the json driver is in use
	store    *store.Store
	media    media.Store
	local    *media.Local // nil unless uploads are kept on disk
	location *time.Location
	closers  []io.Closer
}

func (rt *runtime) Close() {
	for _, c := range rt.closers {
		_ = c.Close()
	}
}

func buildRuntime(cfg *Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{}

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	rt.location = loc

	switch cfg.Data.Driver {
	case DriverSQLite:
		db, err := store.OpenSQLite(cfg.Data.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		rt.closers = append(rt.closers, db)
		rt.store = store.New(db)
	default:
		fs, err := store.NewFS(cfg.Data.Path)
		if err != nil {
			return nil, fmt.Errorf("init json store: %w", err)
		}
		rt.fs = fs
		rt.store = store.New(fs)
	}

	switch cfg.Uploads.Backend {
	case media.BackendCloudinary:
		c, err := media.NewCloudinary(cfg.Uploads.CloudinaryURL, cfg.Uploads.Folder)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		rt.media = c
	default:
		local, err := media.NewLocal(cfg.Uploads.Path, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("init uploads: %w", err)
		}
		rt.local = local
		rt.media = local
	}
	return rt, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_driver", cfg.Data.Driver),
		slog.String("uploads_backend", cfg.Uploads.Backend),
		slog.Bool("mail_enabled", cfg.Mail.Enabled),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Notifications.
	var sender notify.Sender = notify.LogSender{Logger: logger}
	if cfg.Mail.Enabled {
		sender = notify.NewSMTP(notify.SMTPConfig{
			Host:      cfg.Mail.Host,
			Port:      cfg.Mail.Port,
			Username:  cfg.Mail.Username,
			Password:  cfg.Mail.Password,
			From:      cfg.Mail.From,
			Recipient: cfg.Mail.Recipient,
			Timeout:   cfg.Mail.Timeout,
		})
	}
	dispatcher := notify.NewDispatcher(sender, notify.DispatcherOptions{
		QueueSize:   cfg.Mail.QueueSize,
		MaxAttempts: cfg.Mail.MaxAttempts,
		RetryDelay:  cfg.Mail.RetryDelay,
	}, logger)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := siteservice.New(siteservice.Deps{
		Store:     rt.store,
		Media:     rt.media,
		Notifier:  dispatcher,
		Publisher: broker,
		Logger:    logger,
		Location:  rt.location,
		MaxUpload: cfg.Uploads.MaxBytes,
	})
	if _, err := svc.Catalog.Seed(ctx, seedServices(cfg)); err != nil {
		return fmt.Errorf("seed services: %w", err)
	}

	var limiter api.Limiter
	var fixedWindow *ratelimit.FixedWindowLimiter
	if cfg.RateLimit.Enabled() {
		fixedWindow, err = ratelimit.NewFixedWindowLimiter(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword,
			cfg.RateLimit.Prefix, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		if err != nil {
			return fmt.Errorf("init rate limiter: %w", err)
		}
		defer fixedWindow.Close()
		limiter = fixedWindow
	}

	apiRouter := api.NewRouter(api.Deps{
		Services:    svc,
		Events:      broker,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Limiter:     limiter,
		MaxUpload:   cfg.Uploads.MaxBytes,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(api.SecurityHeaders)
	r.Use(api.CORS(allowedOrigins(cfg.CORS.AllowedOrigins)))

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if _, err := svc.Catalog.List(req.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		if fixedWindow != nil {
			if err := fixedWindow.Ping(req.Context()); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "rate limiter unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Locally stored portfolio media.
	if rt.local != nil {
		r.Get(media.URLPrefix+"/portfolio/{filename}", api.NewUploadHandler(rt.local).ServeFile)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Route not found"}` + "\n"))
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Deliver queued notifications.
	g.Go(func() error {
		return dispatcher.Run(gCtx)
	})

	// Watch the data dir for edits made outside the API.
	if rt.fs != nil && cfg.Data.Watch {
		g.Go(func() error {
			err := watch.Watch(gCtx, watch.Options{
				Dir:      rt.fs.Root(),
				Debounce: 500 * time.Millisecond,
				Ignore: func(collection string) bool {
					return rt.fs.WroteWithin(collection, selfWriteWindow)
				},
				Logger: logger,
			}, func(collection string) {
				broker.PublishChange(watch.EventCollectionChanged, collection, 0)
			})
			if err != nil {
				logger.Warn("data watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
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
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// SSE streams never finish on their own.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the dispatcher and watcher stop with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the admin tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(app.logger)

	rt, err := buildRuntime(app.config, app.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc := siteservice.New(siteservice.Deps{
		Store:     rt.store,
		Media:     rt.media,
		Logger:    app.logger,
		Location:  rt.location,
		MaxUpload: app.config.Uploads.MaxBytes,
	})
	if _, err := svc.Catalog.Seed(ctx, seedServices(app.config)); err != nil {
		return fmt.Errorf("seed services: %w", err)
	}

	app.logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

func seedServices(cfg *Config) []models.Service {
	if seeds := cfg.SeedServices(); seeds != nil {
		return seeds
	}
	return siteservice.DefaultServices()
}

func allowedOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": code < 400, "status": status})
}
