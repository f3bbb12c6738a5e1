package padsim

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/ratpad-bridge/internal/pad"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

type capture struct {
	mu     sync.Mutex
	events []protocol.Event
}

func (c *capture) handle(payload []byte) {
	e, err := protocol.DecodeEvent(payload)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *capture) all() []protocol.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Event(nil), c.events...)
}

func send(t *testing.T, d *Device, req protocol.Request) ([]byte, error) {
	t.Helper()
	cmd, err := protocol.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return d.SendCommand(context.Background(), cmd)
}

func TestConnectEmitsEvent(t *testing.T) {
	d := New()
	var c capture
	d.OnEvent(c.handle)

	if _, err := send(t, d, protocol.SerialConnect{Port: DefaultPort, Rate: 115200}); err != nil {
		t.Fatalf("connect error = %v", err)
	}
	events := c.all()
	if len(events) != 1 || !events[0].IsConnect() {
		t.Fatalf("events = %+v, want one connect", events)
	}
	if cfg := d.Config(); cfg.DevicePort == nil || *cfg.DevicePort != DefaultPort || *cfg.DeviceRate != 115200 {
		t.Errorf("config port/rate not recorded: %+v", cfg)
	}

	resp, err := send(t, d, protocol.SerialGetState{})
	if err != nil {
		t.Fatalf("get_state error = %v", err)
	}
	raw, err := protocol.DecodeResponse(protocol.NSSerialGetState, resp)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	state, err := protocol.DecodeResult(protocol.SerialGetState{}, raw)
	if err != nil || state == nil || !state.Connected || *state.Port != DefaultPort {
		t.Errorf("state = %+v, %v", state, err)
	}
}

func TestCommandsRequireConnection(t *testing.T) {
	d := New()
	_, err := send(t, d, protocol.ConfigGetConfig{})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("get_config while disconnected = %v, want ErrNotConnected", err)
	}
	if _, err := send(t, d, protocol.SerialListPorts{}); err != nil {
		t.Errorf("list_ports while disconnected = %v", err)
	}
}

func TestModeMutations(t *testing.T) {
	d := New()
	var c capture
	d.OnEvent(c.handle)
	if _, err := send(t, d, protocol.SerialConnect{Port: DefaultPort, Rate: 9600}); err != nil {
		t.Fatal(err)
	}

	steps := []protocol.Request{
		protocol.ConfigWriteMode{Mode: pad.ModeConfig{Key: "a", Title: "A"}},
		protocol.ConfigWriteMode{Mode: pad.ModeConfig{Key: "b", Title: "B"}},
		protocol.ConfigWriteMode{Mode: pad.ModeConfig{Key: "a", Title: "A2"}},
		protocol.ConfigDeleteMode{Key: "b"},
		protocol.SetBrightness(10),
	}
	for _, req := range steps {
		if _, err := send(t, d, req); err != nil {
			t.Fatalf("%s error = %v", req.Namespace(), err)
		}
	}

	cfg := d.Config()
	if keys := cfg.ModeKeys(); len(keys) != 1 || keys[0] != "a" {
		t.Errorf("mode keys = %v, want [a]", keys)
	}
	if m, _ := cfg.Mode("a"); m.Title != "A2" {
		t.Errorf("mode a title = %q, want A2", m.Title)
	}
	if cfg.Colors.Brightness != 10 {
		t.Errorf("brightness = %d", cfg.Colors.Brightness)
	}

	configEvents := 0
	for _, e := range c.all() {
		if e.IsConfigChange() {
			configEvents++
		}
	}
	if configEvents != len(steps) {
		t.Errorf("config events = %d, want %d", configEvents, len(steps))
	}

	if _, err := send(t, d, protocol.PadSetMode{Mode: "a"}); err != nil || d.ActiveMode() != "a" {
		t.Errorf("set_mode = %v, active %q", err, d.ActiveMode())
	}
	if _, err := send(t, d, protocol.PadSetMode{Mode: "b"}); !errors.Is(err, pad.ErrModeNotFound) {
		t.Errorf("set_mode(b) = %v, want ErrModeNotFound", err)
	}
	if _, err := send(t, d, protocol.ConfigClearModes{}); err != nil || d.ActiveMode() != "" {
		t.Errorf("clear_modes = %v, active %q", err, d.ActiveMode())
	}
}

func TestFailNextAndAutoEvents(t *testing.T) {
	d := New()
	var c capture
	d.OnEvent(c.handle)
	d.SetAutoEvents(false)

	boom := errors.New("boom")
	d.FailNext(protocol.NSSerialConnect, boom)
	if _, err := send(t, d, protocol.SerialConnect{Port: DefaultPort, Rate: 9600}); !errors.Is(err, boom) {
		t.Fatalf("first connect = %v, want boom", err)
	}
	if _, err := send(t, d, protocol.SerialConnect{Port: DefaultPort, Rate: 9600}); err != nil {
		t.Fatalf("second connect = %v", err)
	}
	if n := len(c.all()); n != 0 {
		t.Errorf("events with auto events off = %d, want 0", n)
	}
	if got := d.Received(); len(got) != 2 {
		t.Errorf("received = %v", got)
	}
}

func TestUnknownPortAndGarbage(t *testing.T) {
	d := New()
	d.SetPorts(pad.PortInfo{PortName: "/dev/ttyUSB0", PortType: pad.USBPort(pad.USBPortInfo{VendorID: 0x239a, ProductID: 0x8108})})

	if _, err := send(t, d, protocol.SerialConnect{Port: DefaultPort, Rate: 9600}); !errors.Is(err, ErrUnknownPort) {
		t.Errorf("connect(default port) = %v, want ErrUnknownPort", err)
	}
	if _, err := d.SendCommand(context.Background(), []byte(`READ_CONFIG:;`)); !errors.Is(err, ErrRejected) {
		t.Errorf("garbage = %v, want ErrRejected", err)
	}
}

func TestPressReportsActiveMode(t *testing.T) {
	d := New()
	var c capture
	unsubscribe := d.OnEvent(c.handle)

	if err := d.Press(4); err != nil {
		t.Fatalf("Press() error = %v", err)
	}
	if err := d.Press(pad.KeySlots); err == nil {
		t.Error("Press(out of range) succeeded")
	}
	unsubscribe()
	if err := d.Rotate(3); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	events := c.all()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	in, err := events[0].Input()
	if err != nil {
		t.Fatalf("Input() error = %v", err)
	}
	slot, ok := in.Slot()
	if in.Mode != "base" || !ok || slot != 4 || in.Key.Name != "action_5" {
		t.Errorf("input = %+v, slot %d", in, slot)
	}
}
