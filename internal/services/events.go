package services

import (
	"log"

	"storemaster/pkg/rabbitmq"
)

// EventPublisher publishes domain events. *rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// publishEvent delivers an event if a publisher is configured. Delivery
// failures are logged; they never fail the operation that raised the event.
func publishEvent(pub EventPublisher, eventType string, data map[string]any) {
	if pub == nil {
		return
	}
	body, err := rabbitmq.NewEvent(eventType, data).Encode()
	if err != nil {
		log.Printf("Error encoding %s event: %v", eventType, err)
		return
	}
	if err := pub.Publish(eventType, body); err != nil {
		log.Printf("Error publishing %s event: %v", eventType, err)
	}
}
