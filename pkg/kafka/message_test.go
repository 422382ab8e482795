package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("booking-1").
		WithValue(map[string]string{"status": "Pending"}).
		WithEventType("booking.created").
		WithSource("bookings").
		WithCorrelationID("req-1").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "booking-1", msg.Key)
	assert.JSONEq(t, `{"status":"Pending"}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "booking.created", msg.GetEventType())
	assert.Equal(t, "bookings", msg.GetSource())
	assert.Equal(t, "req-1", msg.GetCorrelationID())

	_, ok := msg.GetHeader(HeaderTimestamp)
	assert.True(t, ok)
}

func TestMessageBuilder_KeepsExplicitEventID(t *testing.T) {
	msg, err := NewMessage().WithKey("k").WithValue(1).WithEventID("evt-1").Build()
	require.NoError(t, err)
	assert.Equal(t, "evt-1", msg.GetEventID())
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
}

func TestMessage_DecodeValue(t *testing.T) {
	msg := Message{Value: []byte(`{"room_id":"r1"}`)}
	var payload struct {
		RoomID string `json:"room_id"`
	}
	require.NoError(t, msg.DecodeValue(&payload))
	assert.Equal(t, "r1", payload.RoomID)

	bad := Message{Value: []byte(`{`)}
	err := bad.DecodeValue(&payload)
	require.Error(t, err)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))
}
