package models

import (
	"encoding/json"
	"time"
)

// EventType categorizes events in the system.
type EventType string

const (
	// Iteration events
	EventTypeIterationAdded     EventType = "iteration.added"
	EventTypeIterationCommitted EventType = "iteration.committed"
	EventTypeIterationCancelled EventType = "iteration.cancelled"
	EventTypeIterationResized   EventType = "iteration.resized"
	EventTypeIterationRemoved   EventType = "iteration.removed"

	// Experiment events
	EventTypeExperimentLocked   EventType = "experiment.locked"
	EventTypeExperimentUnlocked EventType = "experiment.unlocked"
	EventTypeExperimentReset    EventType = "experiment.reset"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeExperiment EntityType = "experiment"
	EntityTypeSystem     EntityType = "system"
)

// Event represents an append-only log entry describing one applied store command.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Revision is the store revision produced by the command.
	Revision uint64 `json:"revision"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CommandPayload is the payload for every store event.
type CommandPayload struct {
	Command     string          `json:"command"`
	IterationID int             `json:"iteration_id,omitempty"`
	Length      IterationLength `json:"length,omitempty"`
	Status      Status          `json:"status"`
	Iterations  int             `json:"iterations"`
}
