// Package events turns booking and room changes into Kafka messages.
package events

import (
	"context"
	"time"

	"campus/pkg/kafka"
	"campus/pkg/logger"
	"campus/pkg/middleware"
	"campus/pkg/model"
)

const SchemaVersion = "1"

// Publisher emits change events. Delivery is best-effort: failures are
// logged and never surface to the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, event model.BookingEvent)
}

type KafkaPublisher struct {
	producer kafka.Publisher
	source   string
	timeout  time.Duration
	log      *logger.Logger
}

func NewKafkaPublisher(producer kafka.Publisher, source string, timeout time.Duration, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
		timeout:  timeout,
		log:      log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, event model.BookingEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(event).
		WithEventType(eventType).
		WithSource(p.source).
		WithSchemaVersion(SchemaVersion).
		WithCorrelationID(middleware.RequestID(ctx)).
		Build()
	if err != nil {
		p.log.Error("Failed to build event", "event_type", eventType, "key", key, "error", err)
		return
	}

	// the request may already be finishing; the publish gets its own budget
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Warn("Failed to publish event",
			"event_type", eventType,
			"key", key,
			"event_id", msg.GetEventID(),
			"error", err,
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, model.BookingEvent) {}

func (NoopPublisher) Close() error { return nil }

// FromBooking fills the event fields shared by every booking event.
func FromBooking(b *model.Booking) model.BookingEvent {
	return model.BookingEvent{
		BookingID:  b.ID,
		RoomID:     b.Room,
		UserID:     b.User.ID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     b.Status,
		OccurredAt: time.Now().UTC(),
	}
}
