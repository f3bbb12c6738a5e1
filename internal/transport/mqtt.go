package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/mqtt"
)

// DefaultTimeout bounds a command round trip when none is configured.
const DefaultTimeout = 5 * time.Second

// Messenger is the part of *mqtt.Client the transport uses.
type Messenger interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
	HasSubscription(topic string) bool
}

// commandEnvelope is published on the command topic. Command is the
// flattened wire command, untouched.
type commandEnvelope struct {
	ID      string          `json:"id"`
	Command json.RawMessage `json:"command"`
}

// responseEnvelope is published by the serial daemon on the response topic.
// Error is set when the daemon could not reach the pad.
type responseEnvelope struct {
	ID       string          `json:"id"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type eventHandler struct {
	id uint64
	fn func([]byte)
}

// MQTT carries pad commands to the serial daemon and its replies and
// events back. Each command gets a UUID correlation ID; replies are matched
// to the waiting SendCommand by that ID.
//
// Thread Safety: All methods are safe for concurrent use.
type MQTT struct {
	client  Messenger
	topics  mqtt.Topics
	qos     byte
	timeout time.Duration

	mu      sync.Mutex
	started bool
	pending map[string]chan responseEnvelope

	handlersMu sync.RWMutex
	handlers   []eventHandler
	nextID     uint64

	logMu  sync.RWMutex
	logger bridge.Logger
}

var _ bridge.Transport = (*MQTT)(nil)

// NewMQTT creates a transport for the pad addressed by topics. A
// non-positive timeout selects DefaultTimeout.
func NewMQTT(client Messenger, topics mqtt.Topics, qos byte, timeout time.Duration) *MQTT {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MQTT{
		client:  client,
		topics:  topics,
		qos:     qos,
		timeout: timeout,
		pending: make(map[string]chan responseEnvelope),
	}
}

// SetLogger sets the logger for correlation misses and bad envelopes.
func (t *MQTT) SetLogger(logger bridge.Logger) {
	t.logMu.Lock()
	defer t.logMu.Unlock()
	t.logger = logger
}

func (t *MQTT) log() bridge.Logger {
	t.logMu.RLock()
	defer t.logMu.RUnlock()
	if t.logger == nil {
		return nopLogger{}
	}
	return t.logger
}

// Start subscribes to the response and event topics.
func (t *MQTT) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}

	if err := t.client.Subscribe(t.topics.Response(), t.qos, t.handleResponse); err != nil {
		return fmt.Errorf("subscribing to responses: %w", err)
	}
	if err := t.client.Subscribe(t.topics.Event(), t.qos, t.handleEvent); err != nil {
		_ = t.client.Unsubscribe(t.topics.Response()) //nolint:errcheck // best-effort rollback
		return fmt.Errorf("subscribing to events: %w", err)
	}
	t.started = true
	return nil
}

// HealthCheck reports whether the broker link is up and both the response
// and event topics are subscribed.
func (t *MQTT) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transport health check: %w", err)
	}
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	if !started {
		return ErrNotStarted
	}
	if !t.client.IsConnected() {
		return ErrBrokerDown
	}
	for _, topic := range []string{t.topics.Response(), t.topics.Event()} {
		if !t.client.HasSubscription(topic) {
			return fmt.Errorf("%w: %s", ErrNotSubscribed, topic)
		}
	}
	return nil
}

// Stop unsubscribes and fails every pending command with ErrClosed.
func (t *MQTT) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	pending := t.pending
	t.pending = make(map[string]chan responseEnvelope)
	t.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}

	for _, topic := range []string{t.topics.Response(), t.topics.Event()} {
		if err := t.client.Unsubscribe(topic); err != nil {
			t.log().Warn("unsubscribe failed", "topic", topic, "error", err)
		}
	}
}

// SendCommand publishes command and waits for the correlated response.
func (t *MQTT) SendCommand(ctx context.Context, command []byte) ([]byte, error) {
	id := uuid.NewString()
	ch := make(chan responseEnvelope, 1)

	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return nil, ErrNotStarted
	}
	t.pending[id] = ch
	t.mu.Unlock()

	payload, err := json.Marshal(commandEnvelope{ID: id, Command: command})
	if err != nil {
		t.forget(id)
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if err := t.client.Publish(t.topics.Command(), payload, t.qos, false); err != nil {
		t.forget(id)
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case env, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if env.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrDaemon, env.Error)
		}
		if len(env.Response) == 0 {
			return nil, fmt.Errorf("%w: empty response", ErrDaemon)
		}
		return env.Response, nil
	case <-timer.C:
		t.forget(id)
		return nil, fmt.Errorf("%w: no response after %v", ErrTimeout, t.timeout)
	case <-ctx.Done():
		t.forget(id)
		return nil, ctx.Err()
	}
}

// OnEvent registers a handler for pad events in arrival order.
func (t *MQTT) OnEvent(fn func(payload []byte)) (unsubscribe func()) {
	t.handlersMu.Lock()
	t.nextID++
	id := t.nextID
	t.handlers = append(t.handlers, eventHandler{id: id, fn: fn})
	t.handlersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.handlersMu.Lock()
			defer t.handlersMu.Unlock()
			for i, h := range t.handlers {
				if h.id == id {
					t.handlers = append(t.handlers[:i], t.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// Pending returns the number of commands awaiting a response.
func (t *MQTT) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *MQTT) forget(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *MQTT) handleResponse(topic string, payload []byte) error {
	var env responseEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrBadEnvelope, err)
	}
	if env.ID == "" {
		return fmt.Errorf("%w: missing id", ErrBadEnvelope)
	}

	t.mu.Lock()
	ch, ok := t.pending[env.ID]
	delete(t.pending, env.ID)
	t.mu.Unlock()

	if !ok {
		t.log().Debug("response for unknown command", "id", env.ID, "topic", topic)
		return nil
	}
	ch <- env
	return nil
}

func (t *MQTT) handleEvent(_ string, payload []byte) error {
	t.handlersMu.RLock()
	handlers := make([]eventHandler, len(t.handlers))
	copy(handlers, t.handlers)
	t.handlersMu.RUnlock()

	for _, h := range handlers {
		h.fn(payload)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
