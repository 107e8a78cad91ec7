package events

// Publisher delivers events to the subscribers of a board. Implementations must
// not block the caller for long: publishing happens after a write has committed
// and a failure only affects live updates.
type Publisher interface {
	Publish(event Event) error
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(Event) error

// Publish calls f.
func (f PublisherFunc) Publish(event Event) error {
	return f(event)
}
