package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/servicelink/service-booking/internal/application"
	"github.com/servicelink/service-booking/internal/config"
	listingDomain "github.com/servicelink/service-booking/internal/domain/listing"
	"github.com/servicelink/service-booking/internal/domain/sequence"
	bookingEvents "github.com/servicelink/service-booking/internal/events"
	"github.com/servicelink/service-booking/internal/handler"
	"github.com/servicelink/service-booking/internal/repository"
	"github.com/servicelink/service-booking/pkg/auth"
	"github.com/servicelink/service-booking/pkg/database"
	"github.com/servicelink/service-booking/pkg/health"
	"github.com/servicelink/service-booking/pkg/kafka"
	"github.com/servicelink/service-booking/pkg/logger"
	"github.com/servicelink/service-booking/pkg/middleware"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("counter_backend", cfg.CounterBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.CounterModel{},
			&repository.ListingModel{},
			&repository.BookingModel{},
			&repository.ReviewModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	checks := map[string]health.Pinger{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// Counter store
	var counters sequence.CounterStore
	switch cfg.CounterBackend {
	case config.CounterBackendMongo:
		mongoClient, err := database.ConnectMongo(ctx, cfg.MongoConfig.URI, log)
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		counters = repository.NewMongoCounterRepository(mongoClient.Database(cfg.MongoConfig.Database))
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	default:
		counters = repository.NewGormCounterRepository(db)
	}
	ids := application.NewIDAllocator(counters)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)

	var listings listingDomain.Lookup = repository.NewGormListingRepository(db)
	redisClient, err := database.ConnectRedis(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB, log)
	if err != nil {
		log.Warn("listing cache disabled", zap.Error(err))
	} else {
		defer func() { _ = redisClient.Close() }()
		listings = repository.NewCachedListingLookup(listings, redisClient, cfg.ListingCacheTTL, log)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	// Bring counters up to the ids already stored
	floors, err := ids.Reconcile(ctx, map[string]application.MaxIDSource{
		sequence.Bookings: bookingRepo,
		sequence.Reviews:  reviewRepo,
	})
	if err != nil {
		log.Fatal("failed to sync id counters", zap.Error(err))
	}
	for name, floor := range floors {
		log.Info("id counter synced", zap.String("counter", name), zap.Int64("floor", floor))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)

	// Initialize Kafka producer
	var publisher application.EventPublisher = bookingEvents.NopPublisher{}
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = bookingEvents.NewKafkaEventPublisher(kafkaProducer, log)
	} else {
		log.Warn("no Kafka brokers configured, domain events are dropped")
	}

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, listings, ids, publisher)
	reviewService := application.NewReviewService(bookingRepo, reviewRepo, ids, publisher)

	// Start payment event consumer in a goroutine
	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins...))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))

	// Register health check routes
	health.NewHandler(serviceName, checks).RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService, cfg.SummaryLimit).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewReviewHandler(reviewService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
