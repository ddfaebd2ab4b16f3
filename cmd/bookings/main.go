package main

import (
	"sevabook/internal/bookings/handler"
	"sevabook/internal/bookings/repository"
	"sevabook/internal/bookings/service"
	"sevabook/internal/bookings/validator"
	"sevabook/pkg/app"
	"sevabook/pkg/clock"
	"sevabook/pkg/config"
	"sevabook/pkg/events"
	"sevabook/pkg/kafka"
	kafka_config "sevabook/pkg/kafka/config"
	kafka_middleware "sevabook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	publisher := initPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	bookingService := initServices(cfg, publisher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.BookingLeadDays, cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewBookingLockRepository(cfg)
	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		bookingValidator,
		clock.NewSystemClock(),
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Event publishing disabled")
		return events.NewNoopPublisher()
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, events.TopicBookingEvents, events.TopicBookingEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())

	cfg.Log.Info("Event publishing enabled", "topic", events.TopicBookingEvents)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}
