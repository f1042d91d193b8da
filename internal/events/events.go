package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	EventFlowStarted         = "flow_started"
	EventFlowReady           = "flow_ready"
	EventFlowAbandoned       = "flow_abandoned"
	EventBookingSubmitted    = "booking_submitted"
	EventBookingSubmitFailed = "booking_submit_failed"
	EventBookingCancelled    = "booking_cancelled"
	EventPaymentSucceeded    = "payment_succeeded"
	EventPaymentFailed       = "payment_failed"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// FlowEventPayload is the funnel snapshot handed to subscribers.
type FlowEventPayload struct {
	FlowID    string `json:"flow_id,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
	HotelID   string `json:"hotel_id,omitempty"`
	RoomType  string `json:"room_type,omitempty"`
	State     string `json:"state,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Nights    int    `json:"nights,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the event payload into out.
func (e *Event) Decode(out interface{}) error {
	return json.Unmarshal(e.Payload, out)
}

type EventHandler func(event *Event) error

// EventBus is an in-process pub/sub. Handlers run synchronously in subscription order.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus creates an event bus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers handler for eventType. AllEvents receives every event.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every handler even when some fail and joins their errors.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[AllEvents]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
