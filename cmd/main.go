/**
 * @description
 * This is the main entry point for the admin-service. Its responsibility is
 * to initialize all necessary components, load the directory into memory and
 * start the HTTP server for the admin console.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Connects to RabbitMQ for event publishing, with a no-op fallback so the
 *   console stays usable when the broker is down.
 * - Connects to Redis for distributed rate limiting of bulk operations.
 * - Loads the account directory and keeps it fresh with a periodic resync.
 * - Starts the HTTP server and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage and API.
 * - pgxpool for database connection, godotenv for local config, go-redis and
 *   the rabbitmq producer for the external collaborators.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/transfa/admin-service/internal/api"
	"github.com/transfa/admin-service/internal/app"
	"github.com/transfa/admin-service/internal/config"
	"github.com/transfa/admin-service/internal/store"
	"github.com/transfa/admin-service/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}
	dbConfig.MaxConns = 20
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts behind poolers.
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up dependencies.
	accountRepo := store.NewPostgresAccountRepository(dbpool)
	documentRepo := store.NewPostgresDocumentRepository(dbpool)

	// Connect to RabbitMQ, falling back to the no-op publisher when the
	// broker is unreachable at startup.
	var producer rabbitmq.Publisher
	if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		log.Printf("WARN: RabbitMQ unavailable, events will only be logged: %v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		producer = p
	}
	defer producer.Close()

	// Connect to Redis for bulk-operation rate limiting.
	var limiter *app.RedisAdminRateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("WARN: invalid REDIS_URL, rate limiting disabled: %v", err)
		} else {
			limiter = app.NewRedisAdminRateLimiter(redis.NewClient(opts), cfg.RedisRateLimitPrefix)
		}
	}

	// Set up the transition engine and load the directory.
	service := app.NewService(accountRepo, documentRepo, producer, cfg.AdminEventExchange)
	if err := service.RefreshDirectory(context.Background()); err != nil {
		log.Fatalf("Unable to load account directory: %v", err)
	}

	// Periodically resync the directory so out-of-band changes (onboarding,
	// other replicas) become visible.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.DirectoryRefreshMinutes) * time.Minute)
		defer ticker.Stop()

		log.Printf("Starting periodic directory refresh every %d minutes...", cfg.DirectoryRefreshMinutes)
		for range ticker.C {
			if err := service.RefreshDirectory(context.Background()); err != nil {
				log.Printf("Directory refresh error: %v", err)
			}
		}
	}()

	// Setup and start HTTP server.
	handlers := api.NewAdminHandlers(service, limiter, cfg.BulkKYCRateLimitPerMinute)
	router := api.NewRouter(&cfg, handlers)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Admin service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down admin-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
