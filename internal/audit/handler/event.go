// Package handler turns consumed booking events into history entries.
package handler

import (
	"context"
	"fmt"
	"time"

	"campus/internal/audit/repository"
	"campus/pkg/kafka"
	"campus/pkg/logger"
	"campus/pkg/model"
)

var knownEvents = map[string]bool{
	model.EventBookingCreated:       true,
	model.EventBookingStatusChanged: true,
	model.EventBookingDeleted:       true,
	model.EventRoomCreated:          true,
}

type EventHandler struct {
	repo repository.HistoryRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewEventHandler(repo repository.HistoryRepository, log *logger.Logger) *EventHandler {
	return &EventHandler{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Handle satisfies kafka.MessageHandler. Malformed messages are permanent
// failures and go to the dead-letter topic; storage errors are returned
// as-is so the consumer can classify and retry them.
func (h *EventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	eventID := msg.GetEventID()
	if eventID == "" {
		return kafka.NewPermanentError("message has no event id", kafka.ErrInvalidMessage)
	}

	eventType := msg.GetEventType()
	if !knownEvents[eventType] {
		h.log.Warn("Skipping unknown event type", "event_type", eventType, "event_id", eventID)
		return nil
	}

	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError(fmt.Sprintf("failed to decode %s event %s", eventType, eventID), err)
	}

	entry := &model.HistoryEntry{
		EventID:    eventID,
		EventType:  eventType,
		Source:     msg.GetSource(),
		Event:      event,
		RecordedAt: h.now().Truncate(time.Millisecond),
	}
	if err := h.repo.Record(ctx, entry); err != nil {
		return err
	}

	h.log.Debug("Recorded booking event", "event_type", eventType, "event_id", eventID, "key", msg.Key)
	return nil
}
