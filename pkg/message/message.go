// Package message collects messages of a response payload and displays them grouped by type.
//
// Collector implements the ajax.Messenger interface.
// Messages are buffered until Show is called, then they are passed to the Sink.
package message

import (
	"sync"

	"github.com/rs/zerolog"
)

// Type of a message.
type Type string

const (
	TypeWarn    Type = "warn"
	TypeInfo    Type = "info"
	TypeError   Type = "error"
	TypeSuccess Type = "success"
)

// displayOrder of the message groups.
var displayOrder = []Type{TypeWarn, TypeInfo, TypeError, TypeSuccess} //nolint:gochecknoglobals

// Sink displays messages of one type.
type Sink interface {
	Display(t Type, messages []string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(t Type, messages []string)

func (fn SinkFunc) Display(t Type, messages []string) {
	fn(t, messages)
}

// Collector buffers messages until Show is called.
type Collector struct {
	sink  Sink
	group bool

	lock     *sync.Mutex
	messages map[Type][]string
}

// Option configures the Collector.
type Option func(c *Collector)

// WithGrouping enables or disables grouping. It is enabled by default.
// With grouping, messages of the same type are passed to the Sink together,
// otherwise the Sink is called for each message.
func WithGrouping(v bool) Option {
	return func(c *Collector) {
		c.group = v
	}
}

// NewCollector creates a Collector which displays messages by the sink.
func NewCollector(sink Sink, opts ...Option) *Collector {
	if sink == nil {
		panic("sink cannot be nil")
	}
	c := &Collector{sink: sink, group: true, lock: &sync.Mutex{}}
	for _, o := range opts {
		o(c)
	}
	c.reset()
	return c
}

// Warn adds a warning.
func (c *Collector) Warn(text string) {
	c.add(TypeWarn, text)
}

// Info adds an information message.
func (c *Collector) Info(text string) {
	c.add(TypeInfo, text)
}

// Error adds an error message.
func (c *Collector) Error(text string) {
	c.add(TypeError, text)
}

// Success adds a success message.
func (c *Collector) Success(text string) {
	c.add(TypeSuccess, text)
}

// Len returns number of buffered messages.
func (c *Collector) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	n := 0
	for _, items := range c.messages {
		n += len(items)
	}
	return n
}

// Show passes buffered messages to the Sink, in the order warn, info, error, success, and clears the buffer.
func (c *Collector) Show() {
	c.lock.Lock()
	messages := c.messages
	c.reset()
	c.lock.Unlock()

	for _, t := range displayOrder {
		items := messages[t]
		if len(items) == 0 {
			continue
		}
		if c.group {
			c.sink.Display(t, items)
			continue
		}
		for _, item := range items {
			c.sink.Display(t, []string{item})
		}
	}
}

// Clear drops buffered messages.
func (c *Collector) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.reset()
}

func (c *Collector) add(t Type, text string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.messages[t] = append(c.messages[t], text)
}

func (c *Collector) reset() {
	c.messages = make(map[Type][]string, len(displayOrder))
}

// LogSink writes messages to the logger.
// Warnings and errors are logged at the corresponding level, other messages at the info level.
func LogSink(logger zerolog.Logger) Sink {
	return SinkFunc(func(t Type, messages []string) {
		var event *zerolog.Event
		switch t {
		case TypeWarn:
			event = logger.Warn()
		case TypeError:
			event = logger.Error()
		default:
			event = logger.Info()
		}
		event.Str("type", string(t)).Strs("messages", messages).Msgf("%d %s message(s)", len(messages), t)
	})
}
