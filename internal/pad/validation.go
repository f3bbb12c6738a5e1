package pad

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation limits.
const (
	maxModeKeyLength = 64
	maxTitleLength   = 64
	maxLabelLength   = 32
)

// Validate checks the key slot's label, action and color override.
func (k *KeyConfig) Validate() error {
	if utf8.RuneCountInString(k.Label) > maxLabelLength {
		return fmt.Errorf("%w: label exceeds %d characters", ErrInvalidKeyConfig, maxLabelLength)
	}
	if err := k.Action.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKeyConfig, err)
	}
	if k.Color != nil {
		if err := k.Color.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKeyConfig, err)
		}
	}
	return nil
}

// ValidateModeKey checks a mode key is non-empty, bounded and free of
// whitespace.
func ValidateModeKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidMode)
	}
	if len(key) > maxModeKeyLength {
		return fmt.Errorf("%w: key exceeds %d characters", ErrInvalidMode, maxModeKeyLength)
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: key %q contains whitespace", ErrInvalidMode, key)
	}
	return nil
}

// Validate checks a single mode in isolation. Key uniqueness across modes
// is checked by ValidateModes.
func (m *ModeConfig) Validate() error {
	if err := ValidateModeKey(m.Key); err != nil {
		return err
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: %s: title is required", ErrInvalidMode, m.Key)
	}
	if utf8.RuneCountInString(m.Title) > maxTitleLength {
		return fmt.Errorf("%w: %s: title exceeds %d characters", ErrInvalidMode, m.Key, maxTitleLength)
	}
	if utf8.RuneCountInString(m.TitleShort) > MaxShortTitleLength {
		return fmt.Errorf("%w: %s: title_short exceeds %d characters", ErrInvalidMode, m.Key, MaxShortTitleLength)
	}
	if m.Color != nil {
		if err := m.Color.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidMode, m.Key, err)
		}
	}
	if len(m.Keys) > KeySlots {
		return fmt.Errorf("%w: %s: %d keys, pad has %d slots", ErrInvalidMode, m.Key, len(m.Keys), KeySlots)
	}
	for i, k := range m.Keys {
		if k == nil {
			continue
		}
		if err := k.Validate(); err != nil {
			return fmt.Errorf("%w: %s: slot %d: %w", ErrInvalidMode, m.Key, i, err)
		}
	}
	return nil
}

// ValidateModes validates every mode and rejects duplicate keys.
func ValidateModes(modes []ModeConfig) error {
	seen := make(map[string]int, len(modes))
	for i := range modes {
		if err := modes[i].Validate(); err != nil {
			return err
		}
		if first, dup := seen[modes[i].Key]; dup {
			return fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateModeKey, modes[i].Key, first, i)
		}
		seen[modes[i].Key] = i
	}
	return nil
}

// ValidateBrightness checks a brightness level is within 0-100.
func ValidateBrightness(level int) error {
	if level < 0 || level > MaxBrightness {
		return fmt.Errorf("%w: %d, must be 0-%d", ErrInvalidBrightness, level, MaxBrightness)
	}
	return nil
}

// Validate checks the navigation colors and brightness.
func (c *ColorsConfig) Validate() error {
	for name, col := range map[ColorKey]Color{
		ColorKeyNext:     c.Next,
		ColorKeyPrevious: c.Previous,
		ColorKeySelect:   c.Select,
	} {
		if err := col.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return ValidateBrightness(c.Brightness)
}

// Validate checks colors and modes, including mode key uniqueness.
func (c *AppConfig) Validate() error {
	if err := c.Colors.Validate(); err != nil {
		return err
	}
	return ValidateModes(c.Modes)
}
