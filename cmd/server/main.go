package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feedback_service/internal/auth"
	"feedback_service/internal/cache"
	"feedback_service/internal/config"
	"feedback_service/internal/domain"
	"feedback_service/internal/fanout"
	"feedback_service/internal/feed"
	"feedback_service/internal/handler"
	"feedback_service/internal/logging"
	"feedback_service/internal/middleware"
	"feedback_service/internal/relay"
	"feedback_service/internal/repository/memory"
	"feedback_service/internal/repository/postgres"
	"feedback_service/internal/service"
	"feedback_service/pkg/db"
	"feedback_service/pkg/kafka"
)

// store is what both storage backends provide: the transactional record
// store and the read side of the change feed.
type store interface {
	service.FeedbackRepository
	feed.EventLog
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger := logging.New(zapLogger)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal(ctx, "cannot create config", zap.Error(err))
	}

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "cannot open store", zap.Error(err))
	}
	defer closeRepo()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		defer rdb.Close()
	}

	changeFeed := feed.New(repo,
		feed.WithPollInterval(cfg.FeedPollInterval),
		feed.WithLogger(logger),
	)

	opts := []service.Option{
		service.WithWorkflow(domain.NewWorkflow(cfg.WorkflowStrict)),
		service.WithBulkConcurrency(cfg.BulkConcurrency),
		service.WithChangeSubscriber(changeFeed),
		service.WithLogger(logger),
	}
	if rdb != nil {
		trackingCache := cache.NewTrackingCache(cache.NewRedisCache(rdb), cfg.TrackingCacheTTL, logger)
		opts = append(opts, service.WithTrackingCache(trackingCache))
	}
	feedbackService := service.NewFeedbackService(repo, changeFeed, opts...)

	hub := fanout.NewHub(changeFeed, fanout.Config{
		QueueSize:   cfg.SessionQueueSize,
		ResumeGrace: cfg.SessionResumeGrace,
		Registerer:  prometheus.DefaultRegisterer,
		Logger:      logger,
	})

	authMiddleware := middleware.NewAuthMiddleware(newAuthorizer(cfg, rdb))

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := repo.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/feedback", func(r chi.Router) {
		handler.NewFeedbackHandler(feedbackService, logger).RegisterRoutes(r, authMiddleware)
	})
	r.Route("/events", func(r chi.Router) {
		handler.NewEventsHandler(hub, feedbackService, logger).RegisterRoutes(r, authMiddleware)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hub.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("fan-out hub: %w", err)
		}
		return nil
	})

	if cfg.KafkaRelayEnabled {
		producer := kafka.NewEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		eventRelay := relay.New(changeFeed, producer, relay.NewRedisCursor(rdb, ""), relay.WithLogger(logger))
		g.Go(func() error {
			if err := eventRelay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("kafka relay: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info(gctx, "Starting server", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "server stopped with error", zap.Error(err))
		return
	}
	logger.Info(ctx, "Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		return memory.New(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, db.Config{
		URL:         cfg.PostgresURL,
		MaxConns:    cfg.PostgresMaxConn,
		MinConns:    cfg.PostgresMinConn,
		AutoMigrate: cfg.PostgresAutoMigrate,
	})
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewFeedbackRepository(pool), pool.Close, nil
}

// newAuthorizer accepts the configured static tokens first and then staff
// sessions stored in Redis.
func newAuthorizer(cfg *config.Config, rdb *redis.Client) auth.Authorizer {
	var chain auth.Chain
	if cfg.StaffTokens != "" {
		chain = append(chain, auth.ParseStaticTokens(cfg.StaffTokens))
	}
	if rdb != nil {
		chain = append(chain, auth.NewRedisAuthorizer(rdb))
	}
	return chain
}
