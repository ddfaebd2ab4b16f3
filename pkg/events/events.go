// Package events publishes booking lifecycle events so downstream services
// (notification senders, reporting) can react without coupling to the API.
package events

import (
	"context"
	"time"

	"sevabook/pkg/kafka"
	"sevabook/pkg/logger"
	"sevabook/pkg/model"
)

// TopicBookingEvents is the topic all booking lifecycle events go to.
const TopicBookingEvents = "bookings.events"

// TopicBookingEventsDLQ receives events that could not be published.
const TopicBookingEventsDLQ = "bookings.events.dlq"

// Event types
const (
	TypeBookingCreated = "booking.created"
	TypeBookingDeleted = "booking.deleted"
)

// SchemaVersion is the current event payload schema version.
const SchemaVersion = "1"

// BookingEvent is the payload published for every booking lifecycle event.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	SevakarthaName string    `json:"sevakartha_name,omitempty"`
	Department     string    `json:"department,omitempty"`
	SevaType       string    `json:"seva_type,omitempty"`
	PoojaDate      string    `json:"pooja_date,omitempty"`
	Status         string    `json:"status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher emits booking lifecycle events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking) error
	BookingDeleted(ctx context.Context, bookingID string) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

// NewKafkaPublisher wraps a producer as a booking event publisher. The source
// is stamped on every message header so consumers can tell services apart.
func NewKafkaPublisher(producer *kafka.Producer, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) error {
	event := BookingEvent{
		Type:           TypeBookingCreated,
		BookingID:      booking.ID,
		SevakarthaName: booking.SevakarthaName,
		Department:     booking.Department,
		SevaType:       booking.SevaType,
		PoojaDate:      booking.PoojaDate.String(),
		Status:         booking.Status,
		OccurredAt:     time.Now().UTC(),
	}

	// Key by pooja date so all events for one date land on one partition.
	msg := kafka.NewMessage().
		WithKey(booking.PoojaDate.String()).
		WithValue(event).
		WithEventType(TypeBookingCreated).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) BookingDeleted(ctx context.Context, bookingID string) error {
	event := BookingEvent{
		Type:       TypeBookingDeleted,
		BookingID:  bookingID,
		OccurredAt: time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(bookingID).
		WithValue(event).
		WithEventType(TypeBookingDeleted).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that discards all events. Used when
// event publishing is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) BookingCreated(ctx context.Context, booking *model.Booking) error { return nil }
func (noopPublisher) BookingDeleted(ctx context.Context, bookingID string) error       { return nil }
func (noopPublisher) Close() error                                                     { return nil }
