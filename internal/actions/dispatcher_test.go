package actions

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/pad"
	"github.com/nerrad567/ratpad-bridge/internal/padsim"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

type started struct {
	name   string
	binary string
	args   []string
}

type mockStarter struct {
	mu    sync.Mutex
	calls []started
	err   error
}

func (m *mockStarter) Start(_ context.Context, name, binary string, args []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, started{name, binary, args})
	return m.err
}

func (m *mockStarter) started() []started {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]started(nil), m.calls...)
}

type staticState struct {
	state pad.AppState
}

func (s staticState) Snapshot() pad.AppState { return s.state }

func editMode() pad.ModeConfig {
	return pad.ModeConfig{
		Key:        "edit",
		Title:      "Editing",
		TitleShort: "EDIT",
		Keys: []*pad.KeyConfig{
			{Label: "Rec", Action: pad.RunCommand("/usr/bin/obs", "--startrecording")},
			{Label: "Copy", Action: pad.Keypress("ctrl+c")},
			nil,
			{Label: "Nop", Action: pad.NoAction()},
		},
	}
}

func stateWith(modes ...pad.ModeConfig) pad.AppState {
	cfg := pad.DefaultAppConfig()
	cfg.Modes = modes
	return pad.AppState{Connection: pad.Connected, Config: &cfg}
}

func inputEvent(t *testing.T, in protocol.Input) protocol.Event {
	t.Helper()
	e, err := protocol.InputEvent(in)
	if err != nil {
		t.Fatalf("InputEvent() error = %v", err)
	}
	return e
}

func TestHandleEvent(t *testing.T) {
	rec := []started{{"edit/1", "/usr/bin/obs", []string{"--startrecording"}}}

	tests := []struct {
		name  string
		state pad.AppState
		event func(t *testing.T) protocol.Event
		want  []started
	}{
		{
			name:  "command key",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.ActionKeyInput("edit", 0)) },
			want:  rec,
		},
		{
			name:  "keypress key",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.ActionKeyInput("edit", 1)) },
		},
		{
			name:  "empty slot",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.ActionKeyInput("edit", 2)) },
		},
		{
			name:  "none action",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.ActionKeyInput("edit", 3)) },
		},
		{
			name:  "slot beyond mode keys",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.ActionKeyInput("edit", 8)) },
		},
		{
			name:  "navigation key",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event {
				return inputEvent(t, protocol.KeyPressInput("edit", protocol.KeyCodeNext, "next"))
			},
		},
		{
			name:  "unknown mode",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.ActionKeyInput("base", 0)) },
		},
		{
			name:  "no config yet",
			state: pad.InitialAppState(),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.ActionKeyInput("edit", 0)) },
		},
		{
			name:  "encoder",
			state: stateWith(editMode()),
			event: func(t *testing.T) protocol.Event { return inputEvent(t, protocol.EncoderValueInput("edit", 2)) },
		},
		{
			name:  "not an input",
			state: stateWith(editMode()),
			event: func(*testing.T) protocol.Event { return protocol.ConfigChangedEvent() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter := &mockStarter{}
			d := New(starter, staticState{tt.state})
			d.HandleEvent(tt.event(t))

			if got := starter.started(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("started = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHandleEventStarterError(t *testing.T) {
	starter := &mockStarter{err: errors.New("not allowed")}
	d := New(starter, staticState{stateWith(editMode())})

	d.HandleEvent(inputEvent(t, protocol.ActionKeyInput("edit", 0)))

	if n := len(starter.started()); n != 1 {
		t.Errorf("Start called %d times, want 1", n)
	}
}

func TestDispatchFromPad(t *testing.T) {
	dev := padsim.New()
	cfg := pad.DefaultAppConfig()
	cfg.Modes = []pad.ModeConfig{editMode()}
	dev.SetConfig(cfg)

	events := bridge.NewEventChannel(dev)
	defer events.Close()
	store := bridge.NewStore(bridge.NewExecutor(dev), events)
	defer store.Close()

	ctx := context.Background()
	if err := store.Connect(ctx, padsim.DefaultPort, 115200); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := store.UpdateState(ctx); err != nil {
		t.Fatalf("UpdateState() error = %v", err)
	}
	if err := store.SetMode(ctx, "edit"); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	starter := &mockStarter{}
	d := New(starter, store)
	d.Attach(events)

	if err := dev.Press(0); err != nil {
		t.Fatalf("Press() error = %v", err)
	}
	d.Detach()
	if err := dev.Press(0); err != nil {
		t.Fatalf("Press() error = %v", err)
	}

	want := []started{{"edit/1", "/usr/bin/obs", []string{"--startrecording"}}}
	if got := starter.started(); !reflect.DeepEqual(got, want) {
		t.Errorf("started = %+v, want %+v", got, want)
	}
}
