package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/ratpad-bridge/internal/pad"
)

func sampleMode() pad.ModeConfig {
	blue := pad.RGB(0, 0, 255)
	return pad.ModeConfig{
		Key:        "stream",
		Title:      "Streaming",
		TitleShort: "STRM",
		Color:      &blue,
		Keys: []*pad.KeyConfig{
			{Label: "Rec", Action: pad.RunCommand("/usr/bin/obs", "--startrecording")},
			nil,
			{Label: "Mute", Action: pad.Keypress("ctrl+m")},
		},
	}
}

// allRequests returns one request per registered namespace.
func allRequests() []Request {
	return []Request{
		SerialConnect{Port: "/dev/ttyACM1", Rate: 115200},
		SerialDisconnect{},
		SerialListPorts{},
		SerialGetState{},
		ConfigGetConfig{},
		SetNavigationColor(pad.ColorKeySelect, pad.RGB(10, 20, 30)),
		ConfigWriteMode{Mode: sampleMode()},
		ConfigDeleteMode{Key: "stream"},
		ConfigClearModes{},
		PadSetHome{},
		PadSetMode{Mode: "stream"},
	}
}

func TestRegistryCoversEveryRequest(t *testing.T) {
	reqs := allRequests()
	commands := Commands()
	if len(reqs) != len(commands) {
		t.Fatalf("%d requests for %d commands", len(reqs), len(commands))
	}
	for i, req := range reqs {
		if req.Namespace() != commands[i].Namespace {
			t.Errorf("request %d namespace = %s, want %s", i, req.Namespace(), commands[i].Namespace)
		}
		if err := req.Namespace().Validate(); err != nil {
			t.Errorf("%s.Validate() = %v", req.Namespace(), err)
		}
	}
}

func TestNamespaceValidate(t *testing.T) {
	tests := []struct {
		ns      Namespace
		wantErr error
	}{
		{ns: "serial.connect"},
		{ns: "pad.set_mode"},
		{ns: "serial", wantErr: ErrInvalidNamespace},
		{ns: "serial.", wantErr: ErrInvalidNamespace},
		{ns: "usb.connect", wantErr: ErrInvalidNamespace},
		{ns: "config.write_mode.extra", wantErr: ErrInvalidNamespace},
		{ns: "config.read_config", wantErr: ErrUnknownNamespace},
	}
	for _, tt := range tests {
		err := tt.ns.Validate()
		if tt.wantErr == nil && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tt.ns, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("Validate(%q) = %v, want %v", tt.ns, err, tt.wantErr)
		}
	}

	if d, a := NSConfigWriteMode.Domain(), NSConfigWriteMode.Action(); d != "config" || a != "write_mode" {
		t.Errorf("Domain/Action = %q/%q", d, a)
	}
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(NSSerialListPorts)
	if !ok || !info.HasResponse {
		t.Errorf("Lookup(list_ports) = %+v, %v", info, ok)
	}
	info, ok = Lookup(NSPadSetHome)
	if !ok || info.HasResponse {
		t.Errorf("Lookup(set_home) = %+v, %v", info, ok)
	}
	if _, ok := Lookup("pad.reboot"); ok {
		t.Error("Lookup(pad.reboot) found an entry")
	}
}

func TestMarshalFlattens(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "connect",
			req:  SerialConnect{Port: "/dev/ttyACM1", Rate: 115200},
			want: `{"type":"serial.connect","port":"/dev/ttyACM1","rate":115200}`,
		},
		{name: "empty request", req: SerialListPorts{}, want: `{"type":"serial.list_ports"}`},
		{name: "get config", req: ConfigGetConfig{}, want: `{"type":"config.get_config"}`},
		{
			name: "color arm",
			req:  SetNavigationColor(pad.ColorKeyNext, pad.RGB(255, 0, 0)),
			want: `{"type":"pad.set_color","key":"next","color":[255,0,0]}`,
		},
		{
			name: "brightness arm",
			req:  SetBrightness(40),
			want: `{"type":"pad.set_color","key":"brightness","level":40}`,
		},
		{name: "delete mode", req: ConfigDeleteMode{Key: "edit"}, want: `{"type":"config.delete_mode","key":"edit"}`},
		{name: "set mode", req: PadSetMode{Mode: "edit"}, want: `{"type":"pad.set_mode","mode":"edit"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.req)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeCommandRoundTrip(t *testing.T) {
	reqs := append(allRequests(), SetBrightness(75))
	for _, req := range reqs {
		t.Run(string(req.Namespace()), func(t *testing.T) {
			data, err := Marshal(req)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			got, err := DecodeCommand(data)
			if err != nil {
				t.Fatalf("DecodeCommand(%s) error = %v", data, err)
			}
			if !reflect.DeepEqual(got, req) {
				t.Errorf("DecodeCommand() = %#v, want %#v", got, req)
			}
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "unknown namespace", input: `{"type":"pad.reboot"}`, wantErr: ErrUnknownNamespace},
		{name: "missing type", input: `{"port":"/dev/ttyACM0"}`, wantErr: ErrUnknownNamespace},
		{name: "not json", input: `serial.connect`, wantErr: ErrMalformedMessage},
		{name: "brightness without level", input: `{"type":"pad.set_color","key":"brightness","color":[1,2,3]}`, wantErr: ErrMalformedMessage},
		{name: "color without color", input: `{"type":"pad.set_color","key":"next","level":3}`, wantErr: ErrMalformedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeCommand() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	badMode := sampleMode()
	badMode.TitleShort = "TOO LONG"

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{name: "channel 255 accepted", req: SetNavigationColor(pad.ColorKeyNext, pad.RGB(255, 255, 255))},
		{name: "channel 256 rejected", req: SetNavigationColor(pad.ColorKeyNext, pad.RGB(256, 0, 0)), wantErr: pad.ErrInvalidColor},
		{name: "brightness 100", req: SetBrightness(100)},
		{name: "brightness 101", req: SetBrightness(101), wantErr: pad.ErrInvalidBrightness},
		{name: "unknown color key", req: SetNavigationColor("home", pad.RGB(1, 1, 1)), wantErr: pad.ErrInvalidColorKey},
		{name: "connect without port", req: SerialConnect{Rate: 9600}, wantErr: ErrInvalidRequest},
		{name: "connect without rate", req: SerialConnect{Port: "/dev/ttyACM0"}, wantErr: ErrInvalidRequest},
		{name: "write invalid mode", req: ConfigWriteMode{Mode: badMode}, wantErr: pad.ErrInvalidMode},
		{name: "delete empty key", req: ConfigDeleteMode{}, wantErr: pad.ErrInvalidMode},
		{name: "set mode empty", req: PadSetMode{}, wantErr: ErrInvalidRequest},
		{name: "clear modes", req: ConfigClearModes{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() = %v, want wrapped ErrInvalidRequest", err)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	data := []byte(`{"type":"serial.list_ports","result":[{"port_name":"/dev/ttyACM0","port_type":"Unknown"}]}`)

	raw, err := DecodeResponse(NSSerialListPorts, data)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	ports, err := DecodeResult(SerialListPorts{}, raw)
	if err != nil {
		t.Fatalf("DecodeResult() error = %v", err)
	}
	if ports == nil || len(*ports) != 1 {
		t.Fatalf("DecodeResult() = %v, want one port", ports)
	}
	if got := (*ports)[0]; got.PortName != "/dev/ttyACM0" || got.PortType.Kind != pad.PortKindUnknown {
		t.Errorf("port = %+v", got)
	}

	if _, err := DecodeResponse(NSSerialConnect, data); !errors.Is(err, ErrProtocolMismatch) {
		t.Errorf("DecodeResponse(wrong ns) = %v, want ErrProtocolMismatch", err)
	}
	if _, err := DecodeResponse(NSSerialConnect, []byte(`{"result":1}`)); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("DecodeResponse(no type) = %v, want ErrMalformedMessage", err)
	}
}

func TestDecodeResponseAbsentResult(t *testing.T) {
	for _, input := range []string{
		`{"type":"config.get_config"}`,
		`{"type":"config.get_config","result":null}`,
	} {
		raw, err := DecodeResponse(NSConfigGetConfig, []byte(input))
		if err != nil {
			t.Fatalf("DecodeResponse(%s) error = %v", input, err)
		}
		snap, err := DecodeResult(ConfigGetConfig{}, raw)
		if err != nil || snap != nil {
			t.Errorf("DecodeResult(%s) = %v, %v; want nil, nil", input, snap, err)
		}
	}
}

func TestFireAndForgetIgnoresResult(t *testing.T) {
	v, err := DecodeResult(PadSetHome{}, json.RawMessage(`{"unexpected":true}`))
	if err != nil || v != nil {
		t.Errorf("DecodeResult(set_home) = %v, %v; want nil, nil", v, err)
	}
}

func TestEncodeResponse(t *testing.T) {
	got, err := EncodeResponse(NSPadSetHome, nil)
	if err != nil {
		t.Fatalf("EncodeResponse() error = %v", err)
	}
	if string(got) != `{"type":"pad.set_home"}` {
		t.Errorf("EncodeResponse(nil) = %s", got)
	}

	port := "/dev/ttyACM0"
	got, err = EncodeResponse(NSSerialGetState, SerialState{Connected: true, Port: &port})
	if err != nil {
		t.Fatalf("EncodeResponse() error = %v", err)
	}
	want := `{"type":"serial.get_state","result":{"connected":true,"port":"/dev/ttyACM0","rate":null}}`
	if string(got) != want {
		t.Errorf("EncodeResponse() = %s, want %s", got, want)
	}

	raw, err := DecodeResponse(NSSerialGetState, got)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	state, err := DecodeResult(SerialGetState{}, raw)
	if err != nil {
		t.Fatalf("DecodeResult() error = %v", err)
	}
	if !state.Connected || *state.Port != port || state.Rate != nil {
		t.Errorf("state = %+v", state)
	}
}
