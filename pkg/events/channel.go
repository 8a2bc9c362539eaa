package events

import (
	"log/slog"

	applog "github.com/jwebster45206/deadtown/internal/logger"
)

// Handler receives events published on a Channel.
// Implementations are compared by identity, so register pointer types.
type Handler interface {
	HandleEvent(ev Event)
}

// Func adapts a plain function to a Handler.
// Each *Func is a distinct handler identity.
type Func struct {
	fn func(Event)
}

// NewFunc wraps fn so it can be subscribed and later unsubscribed.
func NewFunc(fn func(Event)) *Func {
	return &Func{fn: fn}
}

func (f *Func) HandleEvent(ev Event) {
	if f.fn != nil {
		f.fn(ev)
	}
}

// Channel is the ordered, synchronous publish/subscribe bus connecting the
// simulation and the presentation layer.
//
// Architecture:
//   - Single-threaded dispatch, no buffering
//   - Handlers are invoked in subscription order
//   - Publishing from inside a handler dispatches immediately (depth-first)
//   - Events published with no subscribers are dropped
type Channel struct {
	handlers map[Topic][]Handler
	logger   *slog.Logger
}

// NewChannel creates an empty channel. A nil logger discards output.
func NewChannel(logger *slog.Logger) *Channel {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Channel{
		handlers: make(map[Topic][]Handler),
		logger:   logger,
	}
}

// Subscribe registers h for topic. Subscribing a handler that is already
// registered for the topic is a no-op and returns false.
func (c *Channel) Subscribe(topic Topic, h Handler) bool {
	if h == nil {
		return false
	}
	for _, existing := range c.handlers[topic] {
		if existing == h {
			return false
		}
	}
	c.handlers[topic] = append(c.handlers[topic], h)
	return true
}

// SubscribeAll registers h for every topic in topics.
func (c *Channel) SubscribeAll(h Handler, topics ...Topic) {
	for _, t := range topics {
		c.Subscribe(t, h)
	}
}

// Unsubscribe removes h from topic. Removing an absent handler is a no-op.
func (c *Channel) Unsubscribe(topic Topic, h Handler) bool {
	handlers := c.handlers[topic]
	for i, existing := range handlers {
		if existing != h {
			continue
		}
		// Build a fresh slice so an in-flight Publish keeps its snapshot intact
		next := make([]Handler, 0, len(handlers)-1)
		next = append(next, handlers[:i]...)
		next = append(next, handlers[i+1:]...)
		if len(next) == 0 {
			delete(c.handlers, topic)
		} else {
			c.handlers[topic] = next
		}
		return true
	}
	return false
}

// UnsubscribeAll removes h from every topic it is registered for.
func (c *Channel) UnsubscribeAll(h Handler) {
	for topic := range c.handlers {
		c.Unsubscribe(topic, h)
	}
}

// Publish delivers payload to every handler registered for topic when
// Publish is called, then returns.
func (c *Channel) Publish(topic Topic, payload any) {
	handlers := c.handlers[topic]
	if len(handlers) == 0 {
		c.logger.Debug("Event dropped, no subscribers", "topic", topic)
		return
	}

	ev := Event{Topic: topic, Payload: payload}
	c.logger.Debug("Event published", "topic", topic, "handlers", len(handlers))
	for _, h := range handlers {
		h.HandleEvent(ev)
	}
}

// HandlerCount returns the number of handlers registered for topic.
func (c *Channel) HandlerCount(topic Topic) int {
	return len(c.handlers[topic])
}
