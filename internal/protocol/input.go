package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/ratpad-bridge/internal/pad"
)

// InputType is the kind of physical input the pad reported.
type InputType string

// Pad input kinds.
const (
	InputTypeKey           InputType = "key"
	InputTypeEncoderSwitch InputType = "encoder.switch"
	InputTypeEncoderValue  InputType = "encoder.value"
)

// Key codes 0-2 are the navigation keys. Action keys follow them.
const (
	KeyCodePrevious = 0
	KeyCodeSelect   = 1
	KeyCodeNext     = 2
	firstActionKey  = 3
	actionKeyEnd    = firstActionKey + pad.KeySlots
)

// InputKey identifies a pressed key.
type InputKey struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// Input is the data of a generic pad event: a key press, the encoder
// switch changing, or the encoder rotating to a new absolute value.
type Input struct {
	Mode    string    `json:"mode"`
	Type    InputType `json:"type"`
	Key     *InputKey `json:"key,omitempty"`
	Pressed *bool     `json:"pressed,omitempty"`
	Value   *int      `json:"value,omitempty"`
}

// ParseInput decodes and checks a pad input payload.
func ParseInput(data json.RawMessage) (Input, error) {
	if isAbsent(data) {
		return Input{}, fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Validate checks the field required by the input type is present.
func (in Input) Validate() error {
	switch in.Type {
	case InputTypeKey:
		if in.Key == nil {
			return fmt.Errorf("%w: key input without key", ErrInvalidInput)
		}
	case InputTypeEncoderSwitch:
		if in.Pressed == nil {
			return fmt.Errorf("%w: encoder.switch without pressed", ErrInvalidInput)
		}
	case InputTypeEncoderValue:
		if in.Value == nil {
			return fmt.Errorf("%w: encoder.value without value", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, string(in.Type))
	}
	return nil
}

// Slot maps a key input to its index in the mode's key list.
// Navigation keys and non-key inputs report false.
func (in Input) Slot() (int, bool) {
	if in.Type != InputTypeKey || in.Key == nil {
		return 0, false
	}
	if in.Key.Code < firstActionKey || in.Key.Code >= actionKeyEnd {
		return 0, false
	}
	return in.Key.Code - firstActionKey, true
}

// KeyPressInput builds a key input.
func KeyPressInput(mode string, code int, name string) Input {
	return Input{Mode: mode, Type: InputTypeKey, Key: &InputKey{Code: code, Name: name}}
}

// ActionKeyInput builds the key input for an action slot (0-8).
func ActionKeyInput(mode string, slot int) Input {
	return KeyPressInput(mode, firstActionKey+slot, fmt.Sprintf("action_%d", slot+1))
}

// EncoderSwitchInput builds an encoder switch input.
func EncoderSwitchInput(mode string, pressed bool) Input {
	return Input{Mode: mode, Type: InputTypeEncoderSwitch, Pressed: &pressed}
}

// EncoderValueInput builds an encoder rotation input.
func EncoderValueInput(mode string, value int) Input {
	return Input{Mode: mode, Type: InputTypeEncoderValue, Value: &value}
}
