// Package notify provides the typed event bus used by the registry and groups
// to announce changes to observers.
package notify

import (
	"time"

	"github.com/poiesic/adstore/core"
)

// EventType identifies what happened in the registry.
type EventType string

const (
	ObjectAdded    EventType = "added"
	ObjectReplaced EventType = "replaced"
	ObjectRemoved  EventType = "removed"
	ObjectRenamed  EventType = "renamed"
	StoreCleared   EventType = "cleared"
	GroupUpdated   EventType = "group-updated"
)

// AllEventTypes lists every event type in a stable order.
var AllEventTypes = []EventType{
	ObjectAdded,
	ObjectReplaced,
	ObjectRemoved,
	ObjectRenamed,
	StoreCleared,
	GroupUpdated,
}

// Event is a single notification.
type Event struct {
	Type EventType
	// Name is the registry name the event is about. Empty for StoreCleared.
	Name string
	// OldName is set for ObjectRenamed.
	OldName string
	// Object is the object now bound to Name (or just removed).
	Object core.NamedObject
	// Previous is the object that was replaced, for ObjectReplaced.
	Previous  core.NamedObject
	Timestamp time.Time
}

// Observer receives events it subscribed to.
// Observers are compared by identity, so use pointer receivers.
type Observer interface {
	HandleEvent(ev Event) error
}

// ObserverFunc adapts a function to the Observer interface for SubscribeFunc.
type ObserverFunc func(ev Event) error

// Publisher publishes events.
type Publisher interface {
	Publish(ev Event) error
}
