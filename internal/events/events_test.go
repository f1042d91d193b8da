package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingSubmitted, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventBookingSubmitted, FlowEventPayload{FlowID: "f1", BookingID: "B123", Amount: 7500})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingSubmitted, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded FlowEventPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, "B123", decoded.BookingID)
	assert.Equal(t, int64(7500), decoded.Amount)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2, countAll int

	bus.Subscribe(EventFlowReady, func(_ *Event) error { count1++; return nil })
	bus.Subscribe(EventFlowReady, func(_ *Event) error { count2++; return nil })
	bus.Subscribe(AllEvents, func(_ *Event) error { countAll++; return nil })

	require.NoError(t, bus.PublishJSON(EventFlowReady, FlowEventPayload{}))
	require.NoError(t, bus.PublishJSON(EventPaymentFailed, FlowEventPayload{}))

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
	assert.Equal(t, 2, countAll)
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	var ran bool

	bus.Subscribe(EventPaymentFailed, func(_ *Event) error { return errors.New("sink down") })
	bus.Subscribe(EventPaymentFailed, func(_ *Event) error { ran = true; return nil })

	err := bus.PublishJSON(EventPaymentFailed, FlowEventPayload{Error: "card declined"})
	assert.Error(t, err)
	assert.True(t, ran)
}

func TestEventBusNil(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventFlowStarted, nil))
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	err := bus.PublishJSON(EventFlowStarted, map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}
