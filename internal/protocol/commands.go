package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/ratpad-bridge/internal/pad"
)

// Request is any registered command, independent of its response type.
// The set of implementations is closed to this package.
type Request interface {
	Namespace() Namespace
	Validate() error
	sealed()
}

// Command is a request whose response decodes to R.
type Command[R any] interface {
	Request
	decode(raw json.RawMessage) (*R, error)
}

// None is the response type of fire-and-forget commands. Any result the
// pad sends for them is ignored.
type None struct{}

// returns binds a request type to its response type. Embedding it is what
// makes a struct a Command.
type returns[R any] struct{}

func (returns[R]) sealed() {}

func (returns[R]) decode(raw json.RawMessage) (*R, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	if _, fireAndForget := any((*R)(nil)).(*None); fireAndForget {
		return nil, nil
	}
	v := new(R)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("%w: result: %w", ErrMalformedMessage, err)
	}
	return v, nil
}

// SerialConnect opens the serial link to the pad at the given port and baud rate.
type SerialConnect struct {
	returns[None]
	Port string `json:"port"`
	Rate uint32 `json:"rate"`
}

func (SerialConnect) Namespace() Namespace { return NSSerialConnect }

func (r SerialConnect) Validate() error {
	if r.Port == "" {
		return invalid(NSSerialConnect, errors.New("port is required"))
	}
	if r.Rate == 0 {
		return invalid(NSSerialConnect, errors.New("rate must be positive"))
	}
	return nil
}

// SerialDisconnect closes the serial link.
type SerialDisconnect struct{ returns[None] }

func (SerialDisconnect) Namespace() Namespace { return NSSerialDisconnect }
func (SerialDisconnect) Validate() error      { return nil }

// SerialListPorts enumerates the serial ports visible to the transport.
type SerialListPorts struct{ returns[[]pad.PortInfo] }

func (SerialListPorts) Namespace() Namespace { return NSSerialListPorts }
func (SerialListPorts) Validate() error      { return nil }

// SerialState is the transport's view of the serial link.
type SerialState struct {
	Connected bool    `json:"connected"`
	Port      *string `json:"port"`
	Rate      *uint32 `json:"rate"`
}

// SerialGetState queries the serial link state.
type SerialGetState struct{ returns[SerialState] }

func (SerialGetState) Namespace() Namespace { return NSSerialGetState }
func (SerialGetState) Validate() error      { return nil }

// ConfigSnapshot is the response to config.get_config.
type ConfigSnapshot struct {
	Config pad.AppConfig `json:"config"`
}

// ConfigGetConfig reads the full configuration from the pad.
type ConfigGetConfig struct{ returns[ConfigSnapshot] }

func (ConfigGetConfig) Namespace() Namespace { return NSConfigGetConfig }
func (ConfigGetConfig) Validate() error      { return nil }

// ConfigWriteMode stores a mode on the pad, replacing any mode with the same key.
type ConfigWriteMode struct {
	returns[None]
	Mode pad.ModeConfig `json:"mode"`
}

func (ConfigWriteMode) Namespace() Namespace { return NSConfigWriteMode }

func (r ConfigWriteMode) Validate() error {
	if err := r.Mode.Validate(); err != nil {
		return invalid(NSConfigWriteMode, err)
	}
	return nil
}

// ConfigDeleteMode removes the mode with the given key.
type ConfigDeleteMode struct {
	returns[None]
	Key string `json:"key"`
}

func (ConfigDeleteMode) Namespace() Namespace { return NSConfigDeleteMode }

func (r ConfigDeleteMode) Validate() error {
	if err := pad.ValidateModeKey(r.Key); err != nil {
		return invalid(NSConfigDeleteMode, err)
	}
	return nil
}

// ConfigClearModes removes every mode.
type ConfigClearModes struct{ returns[None] }

func (ConfigClearModes) Namespace() Namespace { return NSConfigClearModes }
func (ConfigClearModes) Validate() error      { return nil }

// PadSetHome returns the pad to its home screen.
type PadSetHome struct{ returns[None] }

func (PadSetHome) Namespace() Namespace { return NSPadSetHome }
func (PadSetHome) Validate() error      { return nil }

// PadSetMode activates the mode with the given key.
type PadSetMode struct {
	returns[None]
	Mode string `json:"mode"`
}

func (PadSetMode) Namespace() Namespace { return NSPadSetMode }

func (r PadSetMode) Validate() error {
	if err := pad.ValidateModeKey(r.Mode); err != nil {
		return invalid(NSPadSetMode, err)
	}
	return nil
}

// PadSetColor assigns either a navigation color or the brightness level.
// It has two wire arms:
//
//	{"key": "next"|"previous"|"select", "color": [r, g, b]}
//	{"key": "brightness", "level": 0-100}
//
// Build it with SetNavigationColor or SetBrightness.
type PadSetColor struct {
	returns[None]
	Key   pad.ColorKey
	Color pad.Color
	Level int
}

// SetNavigationColor builds the color arm of pad.set_color.
func SetNavigationColor(key pad.ColorKey, color pad.Color) PadSetColor {
	return PadSetColor{Key: key, Color: color}
}

// SetBrightness builds the brightness arm of pad.set_color.
func SetBrightness(level int) PadSetColor {
	return PadSetColor{Key: pad.ColorKeyBrightness, Level: level}
}

func (PadSetColor) Namespace() Namespace { return NSPadSetColor }

// IsBrightness reports whether the request uses the brightness arm.
func (r PadSetColor) IsBrightness() bool { return r.Key == pad.ColorKeyBrightness }

func (r PadSetColor) Validate() error {
	if err := r.Key.Validate(); err != nil {
		return invalid(NSPadSetColor, err)
	}
	if r.IsBrightness() {
		if err := pad.ValidateBrightness(r.Level); err != nil {
			return invalid(NSPadSetColor, err)
		}
		return nil
	}
	if err := r.Color.Validate(); err != nil {
		return invalid(NSPadSetColor, err)
	}
	return nil
}

type setColorArm struct {
	Key   pad.ColorKey `json:"key"`
	Color pad.Color    `json:"color"`
}

type setBrightnessArm struct {
	Key   pad.ColorKey `json:"key"`
	Level int          `json:"level"`
}

// MarshalJSON emits only the fields of the selected arm.
func (r PadSetColor) MarshalJSON() ([]byte, error) {
	if r.IsBrightness() {
		return json.Marshal(setBrightnessArm{Key: r.Key, Level: r.Level})
	}
	return json.Marshal(setColorArm{Key: r.Key, Color: r.Color})
}

// UnmarshalJSON requires the field belonging to the arm named by key.
func (r *PadSetColor) UnmarshalJSON(data []byte) error {
	var w struct {
		Key   pad.ColorKey `json:"key"`
		Color *pad.Color   `json:"color"`
		Level *int         `json:"level"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedMessage, NSPadSetColor, err)
	}

	if w.Key == pad.ColorKeyBrightness {
		if w.Level == nil {
			return fmt.Errorf("%w: %s: brightness requires level", ErrMalformedMessage, NSPadSetColor)
		}
		*r = SetBrightness(*w.Level)
		return nil
	}
	if w.Color == nil {
		return fmt.Errorf("%w: %s: key %q requires color", ErrMalformedMessage, NSPadSetColor, string(w.Key))
	}
	*r = SetNavigationColor(w.Key, *w.Color)
	return nil
}

func invalid(ns Namespace, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidRequest, ns, err)
}
