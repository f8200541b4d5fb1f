package events

import "time"

// TurnEvent reports the progress of a conversation turn.
type TurnEvent struct {
	EventType EventType `json:"type"`
	SessionID string    `json:"session_id"`
	TurnID    string    `json:"turn_id"`
	State     string    `json:"state"`
	Agent     string    `json:"agent,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	EventTime time.Time `json:"time"`
}

// Type implements Event.
func (e *TurnEvent) Type() EventType { return e.EventType }

// Timestamp implements Event.
func (e *TurnEvent) Timestamp() time.Time { return e.EventTime }

// SessionEvent reports a session being opened or cleared.
type SessionEvent struct {
	EventType   EventType `json:"type"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	DatasetName string    `json:"dataset_name,omitempty"`
	EventTime   time.Time `json:"time"`
}

// Type implements Event.
func (e *SessionEvent) Type() EventType { return e.EventType }

// Timestamp implements Event.
func (e *SessionEvent) Timestamp() time.Time { return e.EventTime }
