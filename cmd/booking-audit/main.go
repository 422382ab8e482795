package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"campus/internal/audit/handler"
	"campus/internal/audit/repository"
	"campus/pkg/config"
	"campus/pkg/kafka"
	kafka_config "campus/pkg/kafka/config"
	kafka_middleware "campus/pkg/kafka/middleware"
)

const ServiceName = "booking-audit"

func main() {
	cfg := config.Load(ServiceName)
	if !cfg.KafkaEnabled() {
		cfg.Log.Fatal("KAFKA_BROKERS must be set for the audit worker")
	}

	kafkaCfg, err := kafka_config.Load(cfg.KafkaBrokers)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	eventHandler := handler.NewEventHandler(repository.NewMongoHistoryRepository(cfg), cfg.Log)
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.KafkaBookingTopic, cfg.KafkaAuditGroupID, eventHandler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting booking audit worker",
		"topic", cfg.KafkaBookingTopic,
		"group_id", cfg.KafkaAuditGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Audit consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Booking audit worker stopped")
}
