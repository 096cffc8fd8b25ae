package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/config"
	reservationEvents "github.com/Kilat-Pet-Delivery/service-reservation/internal/events"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/health"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/logger"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/obs"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/repository"
)

const serviceName = "service-reservation"

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

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.Bool("block_on_waiting", cfg.BookingPolicy.BlockOnWaiting),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingConfig.Enabled {
		shutdown, err := obs.InitTracer(ctx, serviceName, cfg.AppEnv, cfg.TracingConfig.Endpoint)
		if err != nil {
			log.Fatal("failed to init tracer", zap.Error(err))
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// Connect to database
	dbConfig := database.FromConfig(cfg.DBConfig)
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.UserModel{}, &repository.ItemModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	itemRepo := repository.NewGormItemRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	transactor := repository.NewGormTransactor(db)

	// Initialize application service
	bookingService := application.NewBookingService(
		bookingRepo,
		itemRepo,
		userRepo,
		transactor,
		cfg.BookingPolicy,
		kafkaProducer,
		log,
	)

	// Initialize and start catalog event consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
	catalogConsumer := reservationEvents.NewCatalogEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = catalogConsumer.Close() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting catalog event consumer")
		if err := catalogConsumer.Start(ctx); err != nil && err != context.Canceled {
			// Stop the service so the group resumes from the uncommitted event on restart.
			log.Error("catalog event consumer stopped", zap.Error(err))
			select {
			case quit <- syscall.SIGTERM:
			default:
			}
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewItemHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
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
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
