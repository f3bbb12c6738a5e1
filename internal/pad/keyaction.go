package pad

import (
	"encoding/json"
	"fmt"
)

// KeyActionType discriminates the KeyAction variants.
type KeyActionType string

// Key action variants.
const (
	ActionNone     KeyActionType = "none"
	ActionKeypress KeyActionType = "keypress"
	ActionCommand  KeyActionType = "command"
)

// KeyAction is what a key does when pressed. Exactly one variant is active:
//
//	{"type": "none"}
//	{"type": "keypress", "key": "ctrl+c"}
//	{"type": "command", "execute": "/usr/bin/obs", "args": ["--startrecording"]}
//
// Args is optional; nil encodes as null.
type KeyAction struct {
	Type    KeyActionType
	Key     string
	Execute string
	Args    []string
}

// NoAction returns the no-op action.
func NoAction() KeyAction {
	return KeyAction{Type: ActionNone}
}

// Keypress returns an action that sends the given key identifier.
func Keypress(key string) KeyAction {
	return KeyAction{Type: ActionKeypress, Key: key}
}

// RunCommand returns an action that executes path with optional arguments.
func RunCommand(path string, args ...string) KeyAction {
	a := KeyAction{Type: ActionCommand, Execute: path}
	if len(args) > 0 {
		a.Args = append([]string(nil), args...)
	}
	return a
}

// Validate checks the variant tag and its required fields.
// Fields belonging to another variant are rejected so a value always has
// a single active arm. The zero value is the none action.
func (a KeyAction) Validate() error {
	switch a.Type {
	case ActionNone, "":
		if a.Key != "" || a.Execute != "" || a.Args != nil {
			return fmt.Errorf("%w: none action carries fields", ErrInvalidKeyAction)
		}
	case ActionKeypress:
		if a.Key == "" {
			return fmt.Errorf("%w: keypress requires key", ErrInvalidKeyAction)
		}
		if a.Execute != "" || a.Args != nil {
			return fmt.Errorf("%w: keypress carries command fields", ErrInvalidKeyAction)
		}
	case ActionCommand:
		if a.Execute == "" {
			return fmt.Errorf("%w: command requires execute", ErrInvalidKeyAction)
		}
		if a.Key != "" {
			return fmt.Errorf("%w: command carries keypress key", ErrInvalidKeyAction)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidKeyAction, string(a.Type))
	}
	return nil
}

type noneWire struct {
	Type KeyActionType `json:"type"`
}

type keypressWire struct {
	Type KeyActionType `json:"type"`
	Key  string        `json:"key"`
}

type commandWire struct {
	Type    KeyActionType `json:"type"`
	Execute string        `json:"execute"`
	Args    []string      `json:"args"`
}

// MarshalJSON emits only the fields of the active variant.
// The zero value encodes as the none action.
func (a KeyAction) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ActionNone, "":
		return json.Marshal(noneWire{Type: ActionNone})
	case ActionKeypress:
		return json.Marshal(keypressWire{Type: a.Type, Key: a.Key})
	case ActionCommand:
		return json.Marshal(commandWire{Type: a.Type, Execute: a.Execute, Args: a.Args})
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidKeyAction, string(a.Type))
	}
}

// UnmarshalJSON decodes a tagged action and rejects unknown tags.
func (a *KeyAction) UnmarshalJSON(data []byte) error {
	var head noneWire
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKeyAction, err)
	}

	switch head.Type {
	case ActionNone:
		*a = NoAction()
	case ActionKeypress:
		var w keypressWire
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKeyAction, err)
		}
		*a = KeyAction{Type: ActionKeypress, Key: w.Key}
	case ActionCommand:
		var w commandWire
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKeyAction, err)
		}
		*a = KeyAction{Type: ActionCommand, Execute: w.Execute, Args: w.Args}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidKeyAction, string(head.Type))
	}
	return nil
}

func (a KeyAction) clone() KeyAction {
	out := a
	if out.Type == "" {
		out.Type = ActionNone
	}
	if a.Args != nil {
		out.Args = append([]string{}, a.Args...)
	}
	return out
}
