package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

// Routing keys of the domain events.
const (
	ProductCreated        = "product.created"
	ProductUpdated        = "product.updated"
	ProductDeleted        = "product.deleted"
	SubscriptionCompleted = "subscription.completed"
)

// Event is the envelope of every published message.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data"`
}

// NewEvent builds an envelope stamped with the current time.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data}
}

// Encode marshals the event to JSON.
func (e Event) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
	}
	return body, nil
}

// LogEvent is a consumer handler that records every delivery in the log.
// Deliveries that are not valid events are rejected.
func LogEvent(msg amqp.Delivery) error {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed event: %w", err)
	}
	log.Printf("Received %s event (tag %d): %v", event.Type, msg.DeliveryTag, event.Data)
	return nil
}
