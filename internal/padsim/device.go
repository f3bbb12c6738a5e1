// Package padsim provides an in-memory pad that speaks the bridge's wire
// protocol. It implements bridge.Transport and backs both tests and the
// "simulator" transport mode of ratpadd.
package padsim

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/ratpad-bridge/internal/pad"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// Errors returned by the simulated pad.
var (
	// ErrNotConnected is returned for pad and config commands while the
	// serial link is closed.
	ErrNotConnected = errors.New("padsim: not connected")

	// ErrUnknownPort is returned when connecting to a port that is not listed.
	ErrUnknownPort = errors.New("padsim: no such port")

	// ErrRejected is returned for a command the pad cannot decode.
	ErrRejected = errors.New("padsim: command rejected")
)

// DefaultPort is the port listed by a new Device.
const DefaultPort = "/dev/ttyACM0"

type handler struct {
	id uint64
	fn func([]byte)
}

// Device is a simulated pad. Configuration commands mutate its config the
// way the firmware does: write_mode replaces by key or appends,
// delete_mode and clear_modes remove, set_color updates one setting.
//
// With auto events enabled (the default) the device emits connect,
// disconnect and config events synchronously from SendCommand, after the
// command is applied and before its response is returned.
//
// Thread Safety: All methods are safe for concurrent use.
type Device struct {
	mu         sync.Mutex
	config     pad.AppConfig
	ports      []pad.PortInfo
	connected  bool
	port       *string
	rate       *uint32
	activeMode string
	autoEvents bool
	failures   map[protocol.Namespace]error
	received   []protocol.Namespace

	handlersMu sync.RWMutex
	handlers   []handler
	nextID     uint64
}

// New returns a disconnected device with the default configuration and a
// single port of unknown type.
func New() *Device {
	return &Device{
		config:     pad.DefaultAppConfig(),
		ports:      []pad.PortInfo{{PortName: DefaultPort, PortType: pad.PortType{Kind: pad.PortKindUnknown}}},
		autoEvents: true,
		failures:   make(map[protocol.Namespace]error),
	}
}

// SetAutoEvents enables or disables events emitted by SendCommand.
func (d *Device) SetAutoEvents(enabled bool) {
	d.mu.Lock()
	d.autoEvents = enabled
	d.mu.Unlock()
}

// SetPorts replaces the port list.
func (d *Device) SetPorts(ports ...pad.PortInfo) {
	d.mu.Lock()
	d.ports = slices.Clone(ports)
	d.mu.Unlock()
}

// SetConfig replaces the stored configuration.
func (d *Device) SetConfig(cfg pad.AppConfig) {
	d.mu.Lock()
	d.config = cfg.Clone()
	d.mu.Unlock()
}

// Config returns a copy of the stored configuration.
func (d *Device) Config() pad.AppConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config.Clone()
}

// Connected reports whether the simulated link is open.
func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// ActiveMode returns the key of the active mode, or "" on the home screen.
func (d *Device) ActiveMode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeMode
}

// FailNext makes the next command with namespace ns fail with err.
func (d *Device) FailNext(ns protocol.Namespace, err error) {
	d.mu.Lock()
	d.failures[ns] = err
	d.mu.Unlock()
}

// Received returns the namespaces of every decoded command, in order.
func (d *Device) Received() []protocol.Namespace {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.received)
}

// OnEvent implements bridge.Transport.
func (d *Device) OnEvent(fn func(payload []byte)) (unsubscribe func()) {
	d.handlersMu.Lock()
	d.nextID++
	id := d.nextID
	d.handlers = append(d.handlers, handler{id: id, fn: fn})
	d.handlersMu.Unlock()

	return func() {
		d.handlersMu.Lock()
		defer d.handlersMu.Unlock()
		d.handlers = slices.DeleteFunc(slices.Clone(d.handlers), func(h handler) bool { return h.id == id })
	}
}

// SendCommand implements bridge.Transport.
func (d *Device) SendCommand(ctx context.Context, command []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req, err := protocol.DecodeCommand(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	d.mu.Lock()
	d.received = append(d.received, req.Namespace())
	if ferr, ok := d.failures[req.Namespace()]; ok {
		delete(d.failures, req.Namespace())
		d.mu.Unlock()
		return nil, ferr
	}
	result, events, err := d.apply(req)
	auto := d.autoEvents
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if auto {
		for _, e := range events {
			if err := d.Emit(e); err != nil {
				return nil, err
			}
		}
	}
	return protocol.EncodeResponse(req.Namespace(), result)
}

// apply executes a decoded command. d.mu must be held.
func (d *Device) apply(req protocol.Request) (result any, events []protocol.Event, err error) {
	switch r := req.(type) {
	case protocol.SerialConnect:
		if !slices.ContainsFunc(d.ports, func(p pad.PortInfo) bool { return p.PortName == r.Port }) {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPort, r.Port)
		}
		port, rate := r.Port, r.Rate
		d.connected = true
		d.port, d.rate = &port, &rate
		d.config.DevicePort = &port
		d.config.DeviceRate = &rate
		return nil, []protocol.Event{protocol.ConnectEvent()}, nil

	case protocol.SerialDisconnect:
		if !d.connected {
			return nil, nil, nil
		}
		d.connected = false
		d.port, d.rate = nil, nil
		return nil, []protocol.Event{protocol.DisconnectEvent()}, nil

	case protocol.SerialListPorts:
		return slices.Clone(d.ports), nil, nil

	case protocol.SerialGetState:
		state := protocol.SerialState{Connected: d.connected}
		if d.port != nil {
			port, rate := *d.port, *d.rate
			state.Port, state.Rate = &port, &rate
		}
		return state, nil, nil
	}

	if !d.connected {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotConnected, req.Namespace())
	}
	changed := []protocol.Event{protocol.ConfigChangedEvent()}

	switch r := req.(type) {
	case protocol.ConfigGetConfig:
		return protocol.ConfigSnapshot{Config: d.config.Clone()}, nil, nil

	case protocol.ConfigWriteMode:
		d.config.WriteMode(r.Mode)
		return nil, changed, nil

	case protocol.ConfigDeleteMode:
		d.config.DeleteMode(r.Key)
		if d.activeMode == r.Key {
			d.activeMode = ""
		}
		return nil, changed, nil

	case protocol.ConfigClearModes:
		d.config.ClearModes()
		d.activeMode = ""
		return nil, changed, nil

	case protocol.PadSetColor:
		if err := d.config.ApplyColor(r.Key, r.Color, r.Level); err != nil {
			return nil, nil, err
		}
		return nil, changed, nil

	case protocol.PadSetMode:
		if _, ok := d.config.Mode(r.Mode); !ok {
			return nil, nil, fmt.Errorf("%w: %q", pad.ErrModeNotFound, r.Mode)
		}
		d.activeMode = r.Mode
		return nil, nil, nil

	case protocol.PadSetHome:
		d.activeMode = ""
		return nil, nil, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrRejected, req.Namespace())
}

// Emit delivers an event to every handler, in registration order.
func (d *Device) Emit(e protocol.Event) error {
	payload, err := protocol.EncodeEvent(e)
	if err != nil {
		return err
	}
	d.handlersMu.RLock()
	handlers := d.handlers
	d.handlersMu.RUnlock()

	for _, h := range handlers {
		h.fn(payload)
	}
	return nil
}

// EmitRaw delivers an arbitrary payload, bypassing encoding.
func (d *Device) EmitRaw(payload []byte) {
	d.handlersMu.RLock()
	handlers := d.handlers
	d.handlersMu.RUnlock()

	for _, h := range handlers {
		h.fn(payload)
	}
}

// Press emits a key input for an action slot in the active mode.
func (d *Device) Press(slot int) error {
	if slot < 0 || slot >= pad.KeySlots {
		return fmt.Errorf("padsim: slot %d out of range", slot)
	}
	e, err := protocol.InputEvent(protocol.ActionKeyInput(d.modeName(), slot))
	if err != nil {
		return err
	}
	return d.Emit(e)
}

// Rotate emits an encoder value input.
func (d *Device) Rotate(value int) error {
	e, err := protocol.InputEvent(protocol.EncoderValueInput(d.modeName(), value))
	if err != nil {
		return err
	}
	return d.Emit(e)
}

// modeName returns the active mode key, or "base" on the home screen as
// the firmware reports it.
func (d *Device) modeName() string {
	if m := d.ActiveMode(); m != "" {
		return m
	}
	return "base"
}
