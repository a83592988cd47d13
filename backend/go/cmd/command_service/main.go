package main

import (
	"VoiceCalendarAI/backend/go/internal/command_service/api"
	"VoiceCalendarAI/backend/go/internal/command_service/cache"
	"VoiceCalendarAI/backend/go/internal/command_service/consumer"
	"VoiceCalendarAI/backend/go/internal/command_service/publisher"
	"VoiceCalendarAI/backend/go/internal/command_service/service"
	"VoiceCalendarAI/backend/go/internal/command_service/store"
	"VoiceCalendarAI/backend/go/internal/config"
	"VoiceCalendarAI/backend/go/internal/database/kafka"
	"VoiceCalendarAI/backend/go/internal/database/mongo"
	"VoiceCalendarAI/backend/go/internal/database/redis"
	"VoiceCalendarAI/backend/go/internal/discovery/etcd"
	"VoiceCalendarAI/backend/go/internal/interpreter"
	"VoiceCalendarAI/backend/go/internal/llm"
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/circuitbreaker"
	httpclient "VoiceCalendarAI/backend/go/pkg/http"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"VoiceCalendarAI/backend/go/pkg/ratelimiter"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("backend/go/internal/config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)

	serviceLogger := logger.New("CommandService", "", "")

	// Connect to MongoDB using the singleton GetClient
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)
	serviceLogger.Info("Successfully connected to MongoDB")

	// Connect to Redis for the interpretation cache
	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
	}
	cacheTTL := 10 * time.Minute
	if cfg.CommandService.CacheTTL != "" {
		cacheTTL, err = time.ParseDuration(cfg.CommandService.CacheTTL)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Invalid cache TTL")
		}
	}
	outcomeCache := cache.NewRedisOutcomeCache(redisClient, cacheTTL)

	// Ensure the intents and results topics exist before producing to them
	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to initialize Kafka")
	}

	// Build the interpreter: LLM primary path plus rule fallback. A broken
	// LLM configuration is not fatal, the fallback rules still serve.
	var llmClient llm.LLM
	if client, err := llm.NewClient(cfg.LLM); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("LLM client unavailable, running on fallback rules only")
	} else {
		llmClient = client
	}

	interpCfg, err := interpreter.NewConfig(cfg.Interpreter, cfg.LLM.Ollama.Timeout)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Invalid interpreter configuration")
	}

	var breaker circuitbreaker.CircuitBreaker
	if cfg.Middleware.CircuitBreaker.Enabled {
		breakerTimeout, err := time.ParseDuration(cfg.Middleware.CircuitBreaker.Timeout)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Invalid circuit breaker timeout")
		}
		breaker = circuitbreaker.New(cfg.Middleware.CircuitBreaker.FailureThreshold, cfg.Middleware.CircuitBreaker.SuccessThreshold, breakerTimeout)
	}
	interp := interpreter.New(llmClient, breaker, interpCfg, serviceLogger)

	// Create components with logger injection
	commandStore := store.NewMongoCommandStore(db, cfg.CommandService.MongoCollection)
	connManager := service.NewConnectionManager()
	intentPublisher := publisher.NewIntentPublisher(cfg.Databases.Kafka.Brokers, cfg.Databases.Kafka.IntentsTopic, serviceLogger)
	commandService := service.NewCommandService(commandStore, outcomeCache, interp, connManager, intentPublisher, serviceLogger)
	resultConsumer := consumer.NewResultConsumer(cfg.Databases.Kafka.Brokers, cfg.Databases.Kafka.ResultsTopic, cfg.CommandService.ConsumerGroup, serviceLogger)

	// Start Kafka consumer
	ctx, cancel := context.WithCancel(context.Background())
	resultConsumer.Start(ctx, commandService.HandleBookingResult)
	serviceLogger.Info("Kafka booking result consumer started")

	// Health checks cover every dependency the pipeline needs
	healthChecks := map[string]service.ComponentCheck{
		"mongodb": mongo.HealthCheck,
		"redis":   redis.HealthCheck,
		"kafka":   kafkaClient.HealthCheck,
	}
	if cfg.LLM.Provider == "ollama" {
		probeClient, err := httpclient.NewClient(cfg.Middleware.CircuitBreaker)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create LLM probe client")
		}
		healthChecks["ollama"] = service.OllamaCheck(probeClient, cfg.LLM.Ollama.Host, cfg.LLM.Ollama.Model)
	}
	healthChecker := service.NewHealthChecker(healthChecks)

	// Request rate limiting for the public API
	var limiter ratelimiter.RateLimiter
	if cfg.Middleware.RateLimiter.Enabled {
		switch cfg.Middleware.RateLimiter.Algorithm {
		case "fixedWindow":
			window, err := time.ParseDuration(cfg.Middleware.RateLimiter.FixedWindow.Window)
			if err != nil {
				serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Invalid rate limiter window")
			}
			limiter = ratelimiter.NewFixedWindowCounter(cfg.Middleware.RateLimiter.FixedWindow.Limit, window)
		default:
			limiter = ratelimiter.NewTokenBucket(cfg.Middleware.RateLimiter.TokenBucket.Rate, cfg.Middleware.RateLimiter.TokenBucket.Capacity)
		}
	}

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	apiHandler := api.NewAPI(commandService, healthChecker, serviceLogger)
	api.RegisterRoutes(router, apiHandler, cfg.Auth.JwtSecret, limiter)

	srv := &http.Server{
		Addr:    cfg.CommandService.ServerAddress,
		Handler: router,
	}

	// Register with service discovery; the service still runs without it
	var stopRegistration chan<- struct{}
	if sd, err := etcd.NewServiceDiscovery(cfg.Databases.Etcd.Endpoints); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Service discovery unavailable")
	} else {
		defer sd.Close()
		if stopRegistration, err = sd.Register("command_service", cfg.CommandService.ServerAddress, 10); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to register with etcd")
		}
	}

	// Start server
	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Server forced to shutdown")
	}

	if stopRegistration != nil {
		close(stopRegistration)
	}
	cancel()
	if err := intentPublisher.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka publisher")
	}
	if err := resultConsumer.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka consumer")
	}
	if err := kafkaClient.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka admin connection")
	}
	if err := redis.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from Redis")
	}
	if err := mongo.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Server gracefully stopped")
}
