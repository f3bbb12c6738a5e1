package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/pad"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// Starter launches a command in the background. *process.Runner
// satisfies it.
type Starter interface {
	Start(ctx context.Context, name, binary string, args []string) error
}

// StateSource provides the last confirmed configuration. *bridge.Store
// satisfies it.
type StateSource interface {
	Snapshot() pad.AppState
}

// Dispatcher runs the command bound to an action key when the pad reports
// it pressed. Keypress actions are left to the UI, which receives the same
// input events.
//
// Thread Safety: All methods are safe for concurrent use.
type Dispatcher struct {
	starter Starter
	state   StateSource

	mu          sync.Mutex
	unsubscribe func()
	logger      bridge.Logger
}

// New creates a dispatcher.
func New(starter Starter, state StateSource) *Dispatcher {
	return &Dispatcher{starter: starter, state: state}
}

// SetLogger sets the logger.
func (d *Dispatcher) SetLogger(logger bridge.Logger) {
	d.mu.Lock()
	d.logger = logger
	d.mu.Unlock()
}

// Attach subscribes to events, replacing any earlier subscription.
func (d *Dispatcher) Attach(events *bridge.EventChannel) {
	unsub := events.Subscribe(d.HandleEvent)

	d.mu.Lock()
	prev := d.unsubscribe
	d.unsubscribe = unsub
	d.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach stops dispatching.
func (d *Dispatcher) Detach() {
	d.mu.Lock()
	unsub := d.unsubscribe
	d.unsubscribe = nil
	d.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// HandleEvent resolves an action key press against the mode it was
// pressed in and starts the bound command.
func (d *Dispatcher) HandleEvent(e protocol.Event) {
	if !e.IsInput() {
		return
	}
	in, err := e.Input()
	if err != nil {
		return
	}
	slot, ok := in.Slot()
	if !ok {
		return
	}

	action, found := d.lookup(in.Mode, slot)
	if !found {
		d.log().Debug("no key bound", "mode", in.Mode, "slot", slot)
		return
	}

	switch action.Type {
	case pad.ActionCommand:
		name := fmt.Sprintf("%s/%d", in.Mode, slot+1)
		if err := d.starter.Start(context.Background(), name, action.Execute, action.Args); err != nil {
			d.log().Warn("key action rejected", "action", name, "command", action.Execute, "error", err)
		}
	case pad.ActionKeypress:
		d.log().Debug("keypress action left to UI", "mode", in.Mode, "slot", slot, "key", action.Key)
	}
}

func (d *Dispatcher) lookup(mode string, slot int) (pad.KeyAction, bool) {
	snap := d.state.Snapshot()
	if snap.Config == nil {
		return pad.KeyAction{}, false
	}
	m, ok := snap.Config.Mode(mode)
	if !ok {
		return pad.KeyAction{}, false
	}
	key := m.Slot(slot)
	if key == nil {
		return pad.KeyAction{}, false
	}
	return key.Action, true
}

func (d *Dispatcher) log() bridge.Logger {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.logger == nil {
		return nopLogger{}
	}
	return d.logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
