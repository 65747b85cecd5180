package replay

import (
	"errors"
	"sync"
)

// EventType identifies a message produced by a replay.
type EventType string

const (
	EventStart   EventType = "start"
	EventOutput  EventType = "output"
	EventEnd     EventType = "end"
	EventStopped EventType = "stopped"
	EventError   EventType = "error"
)

// Event is one message emitted towards the viewer. Only the fields relevant
// to Type are set.
type Event struct {
	Type            EventType `json:"type"`
	SessionID       string    `json:"session_id,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Speed           float64   `json:"speed,omitempty"`
	Text            string    `json:"text,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// ErrorEvent builds an error event carrying msg.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

// Sink receives the events of a session. Emit is called with the session's
// lock held, so it must not block for long and must not call back into the
// session.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

func (f SinkFunc) Emit(ev Event) error { return f(ev) }

// ErrSinkClosed is returned by ChannelSink.Emit after Close.
var ErrSinkClosed = errors.New("replay: sink closed")

// ChannelSink delivers events over a buffered channel to a consumer such as a
// WebSocket writer goroutine. Emit blocks while the buffer is full until the
// consumer drains it or the sink is closed.
type ChannelSink struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelSink creates a sink with room for buffer undelivered events.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

func (s *ChannelSink) Emit(ev Event) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}
	select {
	case s.ch <- ev:
		return nil
	case <-s.done:
		return ErrSinkClosed
	}
}

// Events is the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// Done is closed once Close has been called.
func (s *ChannelSink) Done() <-chan struct{} { return s.done }

// Close unblocks pending and future Emit calls. The events channel itself is
// left open so a late Emit can never panic.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
