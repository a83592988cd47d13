package main

import (
	"VoiceCalendarAI/backend/go/internal/booking_service/calendar"
	"VoiceCalendarAI/backend/go/internal/booking_service/messaging"
	"VoiceCalendarAI/backend/go/internal/booking_service/service"
	"VoiceCalendarAI/backend/go/internal/config"
	"VoiceCalendarAI/backend/go/internal/database/kafka"
	"VoiceCalendarAI/backend/go/internal/discovery/etcd"
	"VoiceCalendarAI/backend/go/internal/models"
	httpserver "VoiceCalendarAI/backend/go/pkg/http"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	serviceLogger := logger.New("BookingService", "", "")

	ctx, cancel := context.WithCancel(context.Background())

	// Connect to the calendar backend
	provider, err := calendar.NewGoogleProvider(ctx, cfg.Calendar)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create calendar provider")
	}
	serviceLogger.Info("Connected to Google Calendar")

	// Ensure the intents and results topics exist before consuming
	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to initialize Kafka")
	}

	// Create components with logger injection
	resultPublisher := messaging.NewResultPublisher(cfg.Databases.Kafka.Brokers, cfg.Databases.Kafka.ResultsTopic, serviceLogger)
	bookingService := service.NewBookingService(provider, resultPublisher, serviceLogger)
	intentConsumer := messaging.NewIntentConsumer(cfg.Databases.Kafka.Brokers, cfg.Databases.Kafka.IntentsTopic, cfg.BookingService.ConsumerGroup, serviceLogger)

	// Start consuming booking requests
	intentConsumer.Start(ctx, bookingService.HandleRequest)
	serviceLogger.Info("Kafka booking intent consumer started")

	// Health endpoint on the middleware-wrapped HTTP server
	srv, err := httpserver.NewServer(cfg, httpserver.WithAddress(cfg.BookingService.HealthAddress))
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create health server")
	}
	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Register with service discovery; the service still runs without it
	var stopRegistration chan<- struct{}
	if sd, err := etcd.NewServiceDiscovery(cfg.Databases.Etcd.Endpoints); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Service discovery unavailable")
	} else {
		defer sd.Close()
		if stopRegistration, err = sd.Register("booking_service", cfg.BookingService.HealthAddress, 10); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to register with etcd")
		}
	}

	go func() {
		serviceLogger.Info("Starting health server on " + cfg.BookingService.HealthAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Health server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down booking service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Health server forced to shutdown")
	}

	if stopRegistration != nil {
		close(stopRegistration)
	}
	cancel()
	if err := intentConsumer.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka consumer")
	}
	if err := resultPublisher.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka publisher")
	}
	if err := kafkaClient.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka admin connection")
	}

	serviceLogger.Info("Booking service gracefully stopped")
}
