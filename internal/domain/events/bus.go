package events

// Handler consumes events. A returned error is logged, never retried.
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(event Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus publishes events to subscribers asynchronously.
type EventBus interface {
	// Subscribe registers handler for eventType and returns its unsubscribe function.
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// SubscribeMultiple registers handler for several types at once.
	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())

	// Publish dispatches event to every matching subscriber.
	Publish(event Event)

	// Close stops accepting events and waits for in-flight handlers.
	Close()
}
