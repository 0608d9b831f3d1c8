package events

// EventSink represents a destination for relay events. Implementations can
// write them to an HTTP response, publish them through watermill, or collect
// them in tests.
type EventSink interface {
	// PublishEvent publishes an event to the sink.
	// Returns an error if the event could not be published.
	PublishEvent(event Event) error
}

// SinkFunc adapts a plain function to the EventSink interface.
type SinkFunc func(event Event) error

func (f SinkFunc) PublishEvent(event Event) error { return f(event) }

// MultiSink fans out an event to several sinks in order. Publish errors on
// individual sinks do not stop delivery to the remaining ones; the first
// error is returned.
type MultiSink struct {
	sinks []EventSink
}

func NewMultiSink(sinks ...EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) PublishEvent(event Event) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.PublishEvent(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ EventSink = SinkFunc(nil)
	_ EventSink = (*MultiSink)(nil)
)
