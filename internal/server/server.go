package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/inventory"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client

	// stopWorkers cancels the background workers (journal cleanup, cache refresh)
	stopWorkers context.CancelFunc
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Cache coherence layer: read-through cache over the product store
	productCache := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
	productReader := cache.NewProductReader(productCache, productRepo, logger)

	// Stock reservation coordinator with an idempotency journal; committed
	// mutations invalidate the cache synchronously
	journal := inventory.NewJournal(cfg.Inventory.DedupWindow)
	coordinator := inventory.NewCoordinator(productRepo, journal, logger,
		inventory.WithInvalidator(productCache),
		inventory.WithUpdateRetries(cfg.Inventory.UpdateRetries),
	)

	// Initialize services
	productService := service.NewProductService(productRepo, productReader, coordinator, logger, cfg.Inventory.ReserveTimeout)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	commentService := service.NewCommentService(commentRepo, logger)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	commentHandler := transport.NewCommentHandler(commentService, logger)

	// Rate limit the buy endpoint
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	buyLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.Inventory.BuyRateLimit,
		Window:            cfg.Inventory.BuyRateWindow,
		KeyPrefix:         "rate_limit:buy",
	}, logger)

	// Register routes
	productHandler.RegisterRoutes(router, buyLimiter)
	categoryHandler.RegisterRoutes(router)
	commentHandler.RegisterRoutes(router)

	// Background workers run until shutdown
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go inventory.NewCleanupWorker(journal, logger, 0, 0).Run(workerCtx)
	go cache.NewRefreshWorker(productReader, logger, cfg.Cache.RefreshInterval).Run(workerCtx)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		stopWorkers: stopWorkers,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Stop background workers
	if s.stopWorkers != nil {
		s.stopWorkers()
	}

	// Close rate limiter connection
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
