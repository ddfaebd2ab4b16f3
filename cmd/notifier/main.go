package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sevabook/pkg/events"
	"sevabook/pkg/kafka"
	kafka_config "sevabook/pkg/kafka/config"
	kafka_middleware "sevabook/pkg/kafka/middleware"
	"sevabook/pkg/logger"
)

const (
	ServiceName   = "notifier"
	ConsumerGroup = "notifier"
	DLQTopic      = "bookings.events.notifier.dlq"
)

// The notifier consumes booking lifecycle events and emits confirmation
// notifications. Delivery is currently a structured log line; the consumer
// loop, retries and DLQ handling are the part that matters.
func main() {
	log := logger.New(logger.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  logger.JSON,
		Service: ServiceName,
	})

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(log.Info)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		events.TopicBookingEvents,
		ConsumerGroup,
		DLQTopic,
		notifyHandler(log),
	)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	log.Info("Notifier started", "topic", events.TopicBookingEvents, "group", ConsumerGroup)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		log.Error("Failed to close consumer", "error", err)
	}

	log.Info("Notifier stopped gracefully")
}

func notifyHandler(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event events.BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("failed to decode booking event", err)
		}

		switch event.Type {
		case events.TypeBookingCreated:
			log.Info("Sending booking confirmation",
				"booking_id", event.BookingID,
				"sevakartha_name", event.SevakarthaName,
				"department", event.Department,
				"seva_type", event.SevaType,
				"pooja_date", event.PoojaDate,
			)
		case events.TypeBookingDeleted:
			log.Info("Sending booking cancellation notice",
				"booking_id", event.BookingID,
			)
		default:
			return kafka.NewPermanentError(
				fmt.Sprintf("unknown booking event type: %s", event.Type), nil,
			)
		}

		return nil
	}
}
