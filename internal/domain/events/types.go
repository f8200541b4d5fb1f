// Package events defines domain events and the bus interface used to fan them out.
package events

import "time"

// EventType identifies an event.
type EventType string

// Turn lifecycle events.
const (
	// TurnStateChanged fires on every orchestration state transition.
	TurnStateChanged EventType = "turn.state_changed"
	// TurnCompleted fires once a turn has produced its messages.
	TurnCompleted EventType = "turn.completed"
)

// Session events.
const (
	SessionOpened  EventType = "session.opened"
	SessionCleared EventType = "session.cleared"
)

// DatasetFileDropped fires when a data file settles in the inbox directory.
const DatasetFileDropped EventType = "dataset.file_dropped"

// Event is implemented by every domain event.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}
