package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	complaintapi "github.com/civicroot/platform/internal/complaint/api"
	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/complaint/engine"
	"github.com/civicroot/platform/internal/complaint/infrastructure"
	"github.com/civicroot/platform/internal/eventmirror"
	"github.com/civicroot/platform/internal/notification"
	"github.com/civicroot/platform/internal/orgdir"
	"github.com/civicroot/platform/internal/realtime"
	"github.com/civicroot/platform/internal/shared/auth"
	"github.com/civicroot/platform/internal/shared/config"
	"github.com/civicroot/platform/internal/shared/database"
	"github.com/civicroot/platform/internal/shared/logging"
	"github.com/civicroot/platform/internal/shared/metrics"
	secmiddleware "github.com/civicroot/platform/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *database.DB
	Redis  *redis.Client
	Mirror *eventmirror.Mirror
}

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := &App{Config: cfg, Logger: logger}

	// Database (optional - fall back to in-memory stores)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Warn("database not available, running with in-memory stores", zap.Error(err))
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			logger.Warn("migration failed", zap.Error(err))
		}
	}

	// Event mirror (optional, best-effort audit stream)
	if cfg.EventMirror.Enabled {
		mirror, err := eventmirror.New(cfg.EventMirror, logger)
		if err != nil {
			logger.Warn("event mirror not available", zap.Error(err))
		} else {
			app.Mirror = mirror
			defer mirror.Close()
			logger.Info("event mirror initialized",
				zap.String("host", cfg.EventMirror.Host),
				zap.Int("port", cfg.EventMirror.Port),
			)
		}
	}

	// Realtime hub, optionally bridged across nodes via redis
	hub := realtime.NewHub(logger)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not available, fanout stays node-local", zap.Error(err))
		} else {
			app.Redis = rdb
			defer rdb.Close()

			bridge := realtime.NewBridge(rdb, cfg.Realtime.BroadcastChannel, hub, logger)
			go bridge.Run(ctx)
			logger.Info("realtime bridge initialized", zap.String("channel", cfg.Realtime.BroadcastChannel))
		}
	}

	// Storage layer: Postgres when available, in-memory otherwise
	var (
		complaintRepo    domain.Repository
		eventLog         domain.EventLog
		progressLedger   domain.ProgressLedger
		notificationRepo notification.Repository
		directory        orgdir.Directory
	)
	if app.DB != nil {
		complaintRepo = infrastructure.NewPostgresRepository(app.DB.Pool)
		eventLog = infrastructure.NewPostgresEventLog(app.DB.Pool)
		progressLedger = infrastructure.NewPostgresProgressLedger(app.DB.Pool)
		notificationRepo = notification.NewPostgresRepository(app.DB.Pool)
		directory = orgdir.NewPostgresDirectory(app.DB.Pool)
	} else {
		complaintRepo = infrastructure.NewMemoryRepository()
		eventLog = infrastructure.NewMemoryEventLog()
		progressLedger = infrastructure.NewMemoryProgressLedger()
		notificationRepo = notification.NewMemoryRepository()
		directory = orgdir.NewMemoryDirectory()
	}

	resolver := orgdir.NewResolver(directory, cfg.Lifecycle.PreferredOrgTypes, logger)

	deps := engine.Deps{
		Repo:          complaintRepo,
		Events:        eventLog,
		Ledger:        progressLedger,
		Notifications: notificationRepo,
		Router:        resolver,
		Orgs:          directory,
		Fanout:        hub,
		Policy:        cfg.Lifecycle,
		Logger:        logger,
	}
	if app.Mirror != nil {
		deps.Mirror = app.Mirror
	}
	lifecycle := engine.New(deps)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.MaxBodySize(10 * 1024 * 1024))
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))

	rateLimiter := secmiddleware.NewIPRateLimiter(50, 100)
	r.Use(rateLimiter.Middleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	// Websocket subscription endpoint
	wsHandler := realtime.NewHandler(hub, cfg.Realtime.SendBuffer, logger)
	r.Get("/ws", wsHandler.ServeWS)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth))

		complaintHandler := complaintapi.NewHandler(lifecycle)
		r.Mount("/complaints", complaintHandler.Routes())

		orgHandler := orgdir.NewHandler(directory)
		r.Mount("/orgs", orgHandler.Routes())

		notificationHandler := notification.NewHandler(notificationRepo)
		r.Mount("/notifications", notificationHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("civicroot platform started",
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("database", app.DB != nil),
		zap.Bool("redis_bridge", app.Redis != nil),
		zap.Bool("event_mirror", app.Mirror != nil),
	)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	<-done
	logger.Info("server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "CivicRoot Complaint Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
		"ws":      "/ws",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Redis != nil {
			if err := app.Redis.Ping(r.Context()).Err(); err != nil {
				checks["redis"] = "not ready: " + err.Error()
			} else {
				checks["redis"] = "ready"
			}
		} else {
			checks["redis"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
