package bridge

import (
	"sync"

	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// EventHandler receives decoded pad events.
type EventHandler func(protocol.Event)

type listener struct {
	id uint64
	fn EventHandler
}

// EventChannel subscribes once to the transport's event stream and fans
// decoded events out to listeners.
//
// Listeners run synchronously on the transport's delivery goroutine, in
// registration order, and see events in arrival order. Events are not
// buffered, deduplicated or replayed to late subscribers.
type EventChannel struct {
	mu          sync.RWMutex
	listeners   []listener
	nextID      uint64
	unsubscribe func()
	closed      bool
	logger      Logger
}

// NewEventChannel subscribes to the transport's events.
func NewEventChannel(t Transport) *EventChannel {
	c := &EventChannel{logger: noopLogger{}}
	unsub := t.OnEvent(c.handle)

	c.mu.Lock()
	c.unsubscribe = unsub
	c.mu.Unlock()
	return c
}

// SetLogger sets the logger for dropped events and listener panics.
func (c *EventChannel) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

// Subscribe registers fn for every subsequent event. The returned function
// removes it and is safe to call more than once.
func (c *EventChannel) Subscribe(fn EventHandler) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

// Close detaches from the transport. Listeners stay registered but
// receive nothing further.
func (c *EventChannel) Close() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.closed = true
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (c *EventChannel) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *EventChannel) handle(payload []byte) {
	c.mu.RLock()
	logger := c.logger
	closed := c.closed
	listeners := c.listeners
	c.mu.RUnlock()

	if closed {
		return
	}

	event, err := protocol.DecodeEvent(payload)
	if err != nil {
		logger.Warn("dropping pad event", "error", err, "payload", string(payload))
		return
	}

	for _, l := range listeners {
		c.deliver(logger, l, event)
	}
}

// deliver isolates listeners from each other's panics.
func (c *EventChannel) deliver(logger Logger, l listener, event protocol.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event listener panicked", "listener", l.id, "event", event.Kind, "panic", r)
		}
	}()
	l.fn(event)
}
