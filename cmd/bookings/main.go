package main

import (
	"io"

	"campus/internal/bookings/handler"
	"campus/internal/bookings/repository"
	"campus/internal/bookings/service"
	"campus/internal/bookings/validator"
	"campus/internal/events"
	"campus/internal/health"
	roomhandler "campus/internal/rooms/handler"
	roomrepository "campus/internal/rooms/repository"
	roomservice "campus/internal/rooms/service"
	roomvalidator "campus/internal/rooms/validator"
	userrepository "campus/internal/users/repository"
	"campus/pkg/app"
	"campus/pkg/auth"
	"campus/pkg/config"
	"campus/pkg/contracts"
	"campus/pkg/kafka"
	kafka_config "campus/pkg/kafka/config"
	kafka_middleware "campus/pkg/kafka/middleware"
	"campus/pkg/slotlock"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set")
	}

	cfg.SetMongo()
	locker := initLocker(cfg)
	publisher, closers := initPublisher(cfg)

	cfg.Log.Info("Starting Bookings service")
	handlers := initHandlers(cfg, locker, publisher)

	healthHandler := health.NewHandler(cfg.Log).
		WithMongo(cfg.Client.Mongo).
		WithRedis(cfg.Client.Redis)

	serverApp := app.NewApplication(cfg, healthHandler, handlers, closers...)
	serverApp.Run()
}

func initLocker(cfg *config.Config) slotlock.Locker {
	switch cfg.LockBackend {
	case config.LockBackendMongo:
		cfg.Log.Info("Using Mongo slot locks", "ttl", cfg.LockTTL)
		return repository.NewMongoSlotLocker(cfg)
	case config.LockBackendRedis:
		cfg.SetRedis()
		cfg.Log.Info("Using Redis slot locks", "ttl", cfg.LockTTL)
		return slotlock.NewRedisLocker(cfg.Client.Redis, cfg.LockTTL, cfg.LockRetryInterval)
	default:
		cfg.Log.Warn("Using in-process slot locks; run a single replica only")
		return slotlock.NewMemoryLocker()
	}
}

func initPublisher(cfg *config.Config) (events.Publisher, []io.Closer) {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka brokers not configured, booking events disabled")
		return events.NoopPublisher{}, nil
	}

	kafkaCfg, err := kafka_config.Load(cfg.KafkaBrokers)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaBookingTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	publisher := events.NewKafkaPublisher(producer, ServiceName, kafkaCfg.PublishTimeout, cfg.Log)
	cfg.Log.Info("Publishing booking events", "topic", cfg.KafkaBookingTopic, "brokers", cfg.KafkaBrokers)
	return publisher, []io.Closer{publisher}
}

func initHandlers(cfg *config.Config, locker slotlock.Locker, publisher events.Publisher) []contracts.Handler {
	userRepo := userrepository.NewMongoUserRepository(cfg)
	roomRepo := roomrepository.NewMongoRoomRepository(cfg)
	bookingRepo := repository.NewMongoBookingRepository(cfg)

	roomService := roomservice.NewRoomService(
		roomRepo,
		roomvalidator.NewRoomValidator(cfg.Log),
		publisher,
		cfg,
	)
	bookingService := service.NewBookingService(
		bookingRepo,
		roomRepo,
		userRepo,
		locker,
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)

	resolver := auth.NewJWTResolver(cfg.JWTSecret, userRepo)
	return []contracts.Handler{
		roomhandler.NewRoomHandler(roomService, cfg.Log),
		handler.NewBookingHandler(bookingService, resolver, cfg.Log),
	}
}
