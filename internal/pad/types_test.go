package pad

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestKeyActionJSON(t *testing.T) {
	tests := []struct {
		name   string
		action KeyAction
		want   string
	}{
		{name: "none", action: NoAction(), want: `{"type":"none"}`},
		{name: "zero value encodes as none", action: KeyAction{}, want: `{"type":"none"}`},
		{name: "keypress", action: Keypress("ctrl+c"), want: `{"type":"keypress","key":"ctrl+c"}`},
		{name: "command no args", action: RunCommand("/usr/bin/true"), want: `{"type":"command","execute":"/usr/bin/true","args":null}`},
		{name: "command args", action: RunCommand("/usr/bin/obs", "-a", "-b"), want: `{"type":"command","execute":"/usr/bin/obs","args":["-a","-b"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.action)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestKeyActionUnmarshal(t *testing.T) {
	var a KeyAction
	if err := json.Unmarshal([]byte(`{"type":"command","execute":"/bin/ls","args":["-l"]}`), &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := RunCommand("/bin/ls", "-l")
	if !reflect.DeepEqual(a, want) {
		t.Errorf("Unmarshal() = %+v, want %+v", a, want)
	}

	// Fields of inactive arms are dropped.
	if err := json.Unmarshal([]byte(`{"type":"keypress","key":"f5","execute":"/bin/ls"}`), &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(a, Keypress("f5")) {
		t.Errorf("Unmarshal() = %+v, want keypress f5", a)
	}

	for _, input := range []string{`{"type":"macro"}`, `{}`, `"none"`} {
		if err := json.Unmarshal([]byte(input), &a); !errors.Is(err, ErrInvalidKeyAction) {
			t.Errorf("Unmarshal(%s) = %v, want ErrInvalidKeyAction", input, err)
		}
	}
}

func TestModeConfigJSON(t *testing.T) {
	green := RGB(0, 255, 0)
	m := ModeConfig{
		Key:        "edit",
		Title:      "Editing",
		TitleShort: "EDIT",
		Keys: []*KeyConfig{
			nil,
			{Label: "Copy", Action: Keypress("ctrl+c"), Color: &green},
		},
	}

	got, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"key":"edit","title":"Editing","title_short":"EDIT","color":null,"keys":[null,{"label":"Copy","action":{"type":"keypress","key":"ctrl+c"},"color":[0,255,0]}]}`
	if string(got) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
	}

	var back ModeConfig
	if err := json.Unmarshal(got, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(back, m) {
		t.Errorf("round trip = %+v, want %+v", back, m)
	}

	empty, err := json.Marshal(ModeConfig{Key: "x", Title: "X"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"key":"x","title":"X","title_short":"","color":null,"keys":[]}`; string(empty) != want {
		t.Errorf("Marshal(nil keys) = %s, want %s", empty, want)
	}
}

func TestEffectiveColor(t *testing.T) {
	modeColor := RGB(10, 20, 30)
	keyColor := RGB(1, 2, 3)
	m := ModeConfig{
		Key:   "m",
		Color: &modeColor,
		Keys: []*KeyConfig{
			{Label: "own", Action: NoAction(), Color: &keyColor},
			{Label: "inherit", Action: NoAction()},
			nil,
		},
	}

	tests := []struct {
		slot int
		want *Color
	}{
		{slot: 0, want: &keyColor},
		{slot: 1, want: &modeColor},
		{slot: 2, want: &modeColor},
		{slot: 8, want: &modeColor},
	}
	for _, tt := range tests {
		got := m.EffectiveColor(tt.slot)
		if got == nil || *got != *tt.want {
			t.Errorf("EffectiveColor(%d) = %v, want %v", tt.slot, got, *tt.want)
		}
	}

	m.Color = nil
	if got := m.EffectiveColor(1); got != nil {
		t.Errorf("EffectiveColor(1) without mode color = %v, want nil", got)
	}
}

func TestAppConfigModeMutations(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.WriteMode(ModeConfig{Key: "a", Title: "A"})
	cfg.WriteMode(ModeConfig{Key: "b", Title: "B"})
	cfg.WriteMode(ModeConfig{Key: "a", Title: "A2"})

	if got, want := cfg.ModeKeys(), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ModeKeys() = %v, want %v", got, want)
	}
	if m, ok := cfg.Mode("a"); !ok || m.Title != "A2" {
		t.Errorf("Mode(a) = %+v, %v; want title A2", m, ok)
	}

	if !cfg.DeleteMode("b") {
		t.Error("DeleteMode(b) = false, want true")
	}
	if cfg.DeleteMode("missing") {
		t.Error("DeleteMode(missing) = true, want false")
	}
	if _, ok := cfg.Mode("b"); ok {
		t.Error("Mode(b) still present after delete")
	}

	cfg.ClearModes()
	if len(cfg.Modes) != 0 || cfg.Modes == nil {
		t.Errorf("ClearModes() left %v", cfg.Modes)
	}
}

func TestModeConfigCloneMatchesReadBack(t *testing.T) {
	tests := []ModeConfig{
		{Key: "bare", Title: "Bare"},
		{Key: "blank", Title: "Blank", Keys: []*KeyConfig{{Label: "a"}, nil}},
		validMode("edit"),
	}

	for _, m := range tests {
		t.Run(m.Key, func(t *testing.T) {
			data, err := json.Marshal(m)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var back ModeConfig
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", data, err)
			}
			if err := back.Validate(); err != nil {
				t.Errorf("read back Validate() = %v", err)
			}
			if want := m.Clone(); !reflect.DeepEqual(back, want) {
				t.Errorf("read back = %+v, want %+v", back, want)
			}
		})
	}
}

func TestAppConfigLookupOnValue(t *testing.T) {
	snapshot := func() AppConfig {
		cfg := DefaultAppConfig()
		cfg.WriteMode(validMode("edit"))
		return cfg
	}
	if got := snapshot().ModeKeys(); !reflect.DeepEqual(got, []string{"edit"}) {
		t.Errorf("ModeKeys() = %v", got)
	}
	if _, ok := snapshot().Mode("edit"); !ok {
		t.Error("Mode(edit) not found")
	}
	if k := validMode("edit").Slot(2); k == nil || k.Label != "OBS" {
		t.Errorf("Slot(2) = %+v", k)
	}
}

func TestAppConfigCloneIsDeep(t *testing.T) {
	port := "/dev/ttyACM0"
	rate := uint32(115200)
	cfg := DefaultAppConfig()
	cfg.DevicePort = &port
	cfg.DeviceRate = &rate
	cfg.Modes = []ModeConfig{validMode("edit")}

	cp := cfg.Clone()
	*cp.DevicePort = "/dev/ttyUSB0"
	cp.Modes[0].Title = "changed"
	cp.Modes[0].Keys[0].Label = "changed"
	cp.Modes[0].Keys[2].Action.Args[0] = "changed"

	if *cfg.DevicePort != "/dev/ttyACM0" {
		t.Error("clone shares DevicePort")
	}
	if cfg.Modes[0].Title != "Editing" || cfg.Modes[0].Keys[0].Label != "Copy" {
		t.Error("clone shares modes")
	}
	if cfg.Modes[0].Keys[2].Action.Args[0] != "--startrecording" {
		t.Error("clone shares action args")
	}
}

func TestApplyColor(t *testing.T) {
	cfg := DefaultAppConfig()
	if err := cfg.ApplyColor(ColorKeyNext, RGB(1, 2, 3), 0); err != nil {
		t.Fatalf("ApplyColor(next) error = %v", err)
	}
	if err := cfg.ApplyColor(ColorKeyBrightness, Color{}, 30); err != nil {
		t.Fatalf("ApplyColor(brightness) error = %v", err)
	}
	if cfg.Colors.Next != RGB(1, 2, 3) || cfg.Colors.Brightness != 30 {
		t.Errorf("Colors = %+v", cfg.Colors)
	}
	if err := cfg.ApplyColor("home", Color{}, 0); !errors.Is(err, ErrInvalidColorKey) {
		t.Errorf("ApplyColor(home) = %v, want ErrInvalidColorKey", err)
	}
}

func TestPortTypeJSON(t *testing.T) {
	serial := "A1B2"
	tests := []struct {
		name string
		port PortType
		want string
	}{
		{name: "unknown", port: PortType{Kind: PortKindUnknown}, want: `"Unknown"`},
		{name: "pci", port: PortType{Kind: PortKindPCI}, want: `"PciPort"`},
		{name: "bluetooth", port: PortType{Kind: PortKindBluetooth}, want: `"BluetoothPort"`},
		{
			name: "usb",
			port: USBPort(USBPortInfo{VendorID: 0x239a, ProductID: 0x800c, SerialNumber: &serial}),
			want: `{"UsbPort":{"vid":9114,"pid":32780,"serial_number":"A1B2"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.port)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}

			var back PortType
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(back, tt.port) {
				t.Errorf("Unmarshal() = %+v, want %+v", back, tt.port)
			}
		})
	}

	var p PortType
	for _, input := range []string{`"SerialPort"`, `{"PciPort":{}}`, `42`} {
		if err := json.Unmarshal([]byte(input), &p); !errors.Is(err, ErrInvalidPortType) {
			t.Errorf("Unmarshal(%s) = %v, want ErrInvalidPortType", input, err)
		}
	}
}

func TestAppStateClone(t *testing.T) {
	s := InitialAppState()
	if s.Connection != Disconnected || s.Config != nil {
		t.Fatalf("InitialAppState() = %+v", s)
	}

	cfg := DefaultAppConfig()
	s.Config = &cfg
	cp := s.Clone()
	cp.Config.Colors.Brightness = 1
	if s.Config.Colors.Brightness != MaxBrightness {
		t.Error("clone shares config")
	}

	if err := Waiting.Validate(); err != nil {
		t.Errorf("Waiting.Validate() = %v", err)
	}
	if err := ConnectionState("Linking").Validate(); !errors.Is(err, ErrInvalidConnectionState) {
		t.Errorf("Validate(Linking) = %v, want ErrInvalidConnectionState", err)
	}
}
