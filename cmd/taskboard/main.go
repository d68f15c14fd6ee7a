package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kanbanhq/taskboard/pkg/api"
	"github.com/kanbanhq/taskboard/pkg/auth"
	"github.com/kanbanhq/taskboard/pkg/authz"
	"github.com/kanbanhq/taskboard/pkg/boards"
	"github.com/kanbanhq/taskboard/pkg/comments"
	"github.com/kanbanhq/taskboard/pkg/config"
	"github.com/kanbanhq/taskboard/pkg/httputil"
	"github.com/kanbanhq/taskboard/pkg/middleware"
	"github.com/kanbanhq/taskboard/pkg/migrations"
	"github.com/kanbanhq/taskboard/pkg/observability"
	"github.com/kanbanhq/taskboard/pkg/tasks"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx := context.Background()

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := migrations.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database migrations applied")

	// Redis (rate limiting); the API degrades gracefully without it
	redisClient := redis.NewClient(&redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		MaxRetries: cfg.Redis.MaxRetries,
		PoolSize:   cfg.Redis.PoolSize,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warnf("Redis unavailable, rate limiting disabled: %v", err)
		redisClient.Close()
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Services
	authService := auth.NewPostgresService(db, cfg.Auth.TokenTTL)
	boardService := boards.NewPostgresService(db)
	taskService := tasks.NewPostgresService(db)
	commentService := comments.NewPostgresService(db)
	checker := authz.NewChecker(boardService, taskService, commentService)

	// Metrics
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// Tracing
	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	// API server
	opts := []api.Option{}
	if metrics != nil {
		opts = append(opts, api.WithMetrics(metrics))
	}
	if cfg.Observability.OTelEnabled {
		opts = append(opts, api.WithTracing())
	}
	if redisClient != nil && cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(redisClient, &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			WindowDuration:    cfg.RateLimit.Window,
		}, "taskboard")
		opts = append(opts, api.WithRateLimiter(limiter))
	}

	server := api.NewServer(authService, boardService, taskService, commentService, checker, logger, opts...)

	handler := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(log),
		httputil.RecoveryMiddleware(log),
	)(server.Handler())
	if metrics != nil {
		handler = observability.HTTPMetricsMiddleware(metrics)(handler)
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics server on a side port for probes
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	// Token purge job
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Auth.TokenPurgeSchedule, func() {
		purged, err := authService.PurgeExpiredTokens(context.Background())
		if err != nil {
			log.Errorf("Token purge failed: %v", err)
			return
		}
		if purged > 0 {
			log.Infof("Purged %d expired tokens", purged)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule token purge: %v", err)
	}

	// Gauge refresh job
	if metrics != nil {
		_, err = scheduler.AddFunc("@every 1m", func() {
			metrics.UpdateDBStats(db.Stats())
			if err := metrics.CollectBusinessStats(context.Background(), db); err != nil {
				log.Errorf("Stats collection failed: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Failed to schedule stats collection: %v", err)
		}
	}
	scheduler.Start()

	var g errgroup.Group

	g.Go(func() error {
		log.Infof("Starting API server on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Infof("Starting health server on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		manager := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
		manager.RegisterShutdownFunc(healthServer.Shutdown)
		manager.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
			stopped := scheduler.Stop()
			select {
			case <-stopped.Done():
				return nil
			case <-shutdownCtx.Done():
				return shutdownCtx.Err()
			}
		})
		manager.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
			return observability.ShutdownOTel(shutdownCtx, providers, logger)
		})
		return manager.WaitForShutdown()
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Info("Shutdown complete")
}
