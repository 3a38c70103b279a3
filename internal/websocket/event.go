package websocket

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeRecorded    EventType = "recorded"
	EventTypeInvalidated EventType = "invalidated"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeCollection EntityType = "collection"
	EntityTypeCustomer   EntityType = "customer"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`   // e.g. "collection.recorded"
	Entity    EntityType  `json:"entity"` // e.g. "collection"
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CollectionRecorded creates a collection.recorded event
func CollectionRecorded(payload interface{}) Event {
	return NewEvent(EventTypeRecorded, EntityTypeCollection, payload)
}

// CustomerInvalidated creates a customer.invalidated event
func CustomerInvalidated(payload interface{}) Event {
	return NewEvent(EventTypeInvalidated, EntityTypeCustomer, payload)
}
