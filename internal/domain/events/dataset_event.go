package events

import "time"

// DatasetFileEvent is a data file found in the inbox directory.
type DatasetFileEvent struct {
	FilePath  string
	FileSize  int64
	ModTime   time.Time
	EventTime time.Time
}

// Type implements Event.
func (e *DatasetFileEvent) Type() EventType { return DatasetFileDropped }

// Timestamp implements Event.
func (e *DatasetFileEvent) Timestamp() time.Time { return e.EventTime }
