package pad

import (
	"encoding/json"
	"fmt"
)

// Layout constants of the physical pad.
const (
	// KeySlots is the number of assignable action keys per mode.
	// The three remaining keys are reserved for previous/select/next.
	KeySlots = 9

	// MaxShortTitleLength is the number of columns the pad uses to render
	// a mode's short title.
	MaxShortTitleLength = 4

	// MaxBrightness is the highest brightness level (percent).
	MaxBrightness = 100

	// maxChannel is the highest value of a single color channel.
	maxChannel = 255
)

// Color is an RGB triple, encoded as a JSON array [r, g, b].
// Channels are ints so out-of-range input can be detected by Validate
// instead of being truncated on decode.
type Color [3]int

// RGB builds a Color from its channels.
func RGB(r, g, b int) Color {
	return Color{r, g, b}
}

// Validate checks every channel is within 0-255.
func (c Color) Validate() error {
	for i, ch := range c {
		if ch < 0 || ch > maxChannel {
			return fmt.Errorf("%w: channel %d is %d, must be 0-%d", ErrInvalidColor, i, ch, maxChannel)
		}
	}
	return nil
}

// String returns the color as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0]&0xff, c[1]&0xff, c[2]&0xff)
}

// ColorKey names one of the pad's global color settings.
type ColorKey string

// Color keys accepted by pad.set_color.
const (
	ColorKeyNext       ColorKey = "next"
	ColorKeyPrevious   ColorKey = "previous"
	ColorKeySelect     ColorKey = "select"
	ColorKeyBrightness ColorKey = "brightness"
)

// IsNavigation reports whether the key carries an RGB color
// (next, previous, select) rather than a brightness level.
func (k ColorKey) IsNavigation() bool {
	switch k {
	case ColorKeyNext, ColorKeyPrevious, ColorKeySelect:
		return true
	default:
		return false
	}
}

// Validate checks the key is one of the known color keys.
func (k ColorKey) Validate() error {
	if k == ColorKeyBrightness || k.IsNavigation() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidColorKey, string(k))
}

// ColorsConfig holds the navigation key colors and the LED brightness.
type ColorsConfig struct {
	Next       Color `json:"next"`
	Previous   Color `json:"previous"`
	Select     Color `json:"select"`
	Brightness int   `json:"brightness"`
}

// KeyConfig is a single key slot within a mode.
type KeyConfig struct {
	Label  string    `json:"label"`
	Action KeyAction `json:"action"`
	// Color overrides the mode color when set.
	Color *Color `json:"color"`
}

// ModeConfig is a named, switchable set of key bindings.
type ModeConfig struct {
	// Key is the stable identifier used for lookup, activation and deletion.
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	TitleShort string       `json:"title_short"`
	Color      *Color       `json:"color"`
	Keys       []*KeyConfig `json:"keys"`
}

// Slot returns the key config at index, or nil for an empty or
// out-of-range slot.
func (m ModeConfig) Slot(index int) *KeyConfig {
	if index < 0 || index >= len(m.Keys) {
		return nil
	}
	return m.Keys[index]
}

// EffectiveColor returns the color a key slot is lit with: the key's own
// color, else the mode color, else nil.
func (m ModeConfig) EffectiveColor(index int) *Color {
	if k := m.Slot(index); k != nil && k.Color != nil {
		c := *k.Color
		return &c
	}
	if m.Color != nil {
		c := *m.Color
		return &c
	}
	return nil
}

// Clone returns a deep copy of the mode in the form the pad reports it
// back: a nil key list becomes empty and zero actions become none.
func (m ModeConfig) Clone() ModeConfig {
	out := m
	out.Color = cloneColor(m.Color)
	out.Keys = make([]*KeyConfig, len(m.Keys))
	for i, k := range m.Keys {
		if k == nil {
			continue
		}
		kc := *k
		kc.Color = cloneColor(k.Color)
		kc.Action = k.Action.clone()
		out.Keys[i] = &kc
	}
	return out
}

// MarshalJSON encodes a nil key list as an empty array so the pad always
// receives a list.
func (m ModeConfig) MarshalJSON() ([]byte, error) {
	type alias ModeConfig
	a := alias(m)
	if a.Keys == nil {
		a.Keys = []*KeyConfig{}
	}
	return json.Marshal(a)
}

// AppConfig is a full device configuration snapshot.
type AppConfig struct {
	DevicePort *string      `json:"device_port"`
	DeviceRate *uint32      `json:"device_rate"`
	Colors     ColorsConfig `json:"colors"`
	Modes      []ModeConfig `json:"modes"`
}

// DefaultAppConfig returns the configuration of a freshly flashed pad.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Colors: ColorsConfig{Brightness: MaxBrightness},
		Modes:  []ModeConfig{},
	}
}

// Mode returns the mode with the given key.
func (c AppConfig) Mode(key string) (ModeConfig, bool) {
	for _, m := range c.Modes {
		if m.Key == key {
			return m, true
		}
	}
	return ModeConfig{}, false
}

// ModeKeys returns the mode keys in order.
func (c AppConfig) ModeKeys() []string {
	keys := make([]string, len(c.Modes))
	for i, m := range c.Modes {
		keys[i] = m.Key
	}
	return keys
}

// Clone returns a deep copy of the configuration.
func (c AppConfig) Clone() AppConfig {
	out := c
	if c.DevicePort != nil {
		p := *c.DevicePort
		out.DevicePort = &p
	}
	if c.DeviceRate != nil {
		r := *c.DeviceRate
		out.DeviceRate = &r
	}
	if c.Modes != nil {
		out.Modes = make([]ModeConfig, len(c.Modes))
		for i, m := range c.Modes {
			out.Modes[i] = m.Clone()
		}
	}
	return out
}

// WriteMode replaces the mode with the same key, or appends it.
// A replaced mode moves to the end of the list, as on the device.
func (c *AppConfig) WriteMode(mode ModeConfig) {
	c.DeleteMode(mode.Key)
	c.Modes = append(c.Modes, mode.Clone())
}

// DeleteMode removes the mode with the given key. It reports whether a
// mode was removed.
func (c *AppConfig) DeleteMode(key string) bool {
	kept := c.Modes[:0:0]
	for _, m := range c.Modes {
		if m.Key != key {
			kept = append(kept, m)
		}
	}
	removed := len(kept) != len(c.Modes)
	c.Modes = kept
	return removed
}

// ClearModes removes every mode.
func (c *AppConfig) ClearModes() {
	c.Modes = []ModeConfig{}
}

// ApplyColor stores a color or brightness assignment.
func (c *AppConfig) ApplyColor(key ColorKey, color Color, level int) error {
	switch key {
	case ColorKeyNext:
		c.Colors.Next = color
	case ColorKeyPrevious:
		c.Colors.Previous = color
	case ColorKeySelect:
		c.Colors.Select = color
	case ColorKeyBrightness:
		c.Colors.Brightness = level
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColorKey, string(key))
	}
	return nil
}

// ConnectionState is the bridge's view of the pad link.
type ConnectionState string

// Connection states. Waiting only exists between issuing serial.connect
// and its resolution.
const (
	Connected    ConnectionState = "Connected"
	Disconnected ConnectionState = "Disconnected"
	Waiting      ConnectionState = "Waiting"
)

// Validate checks the state is one of the known values.
func (s ConnectionState) Validate() error {
	switch s {
	case Connected, Disconnected, Waiting:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidConnectionState, string(s))
	}
}

// AppState pairs the connection state with the last confirmed configuration.
// Config is nil until the first successful query.
type AppState struct {
	Connection ConnectionState `json:"connection"`
	Config     *AppConfig      `json:"config"`
}

// InitialAppState returns the state before any device contact.
func InitialAppState() AppState {
	return AppState{Connection: Disconnected}
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := AppState{Connection: s.Connection}
	if s.Config != nil {
		cfg := s.Config.Clone()
		out.Config = &cfg
	}
	return out
}

func cloneColor(c *Color) *Color {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
