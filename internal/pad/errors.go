package pad

import "errors"

// Domain errors for the pad configuration model.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, pad.ErrDuplicateModeKey) {
//	    // reject the batch
//	}
var (
	// ErrInvalidColor is returned when a color channel is outside 0-255.
	ErrInvalidColor = errors.New("pad: invalid color")

	// ErrInvalidBrightness is returned when a brightness level is outside 0-100.
	ErrInvalidBrightness = errors.New("pad: invalid brightness")

	// ErrInvalidColorKey is returned for a color key other than next,
	// previous, select or brightness.
	ErrInvalidColorKey = errors.New("pad: invalid color key")

	// ErrInvalidKeyAction is returned when a key action variant is unknown
	// or missing its required fields.
	ErrInvalidKeyAction = errors.New("pad: invalid key action")

	// ErrInvalidKeyConfig is returned when a key slot fails validation.
	ErrInvalidKeyConfig = errors.New("pad: invalid key config")

	// ErrInvalidMode is returned when a mode configuration fails validation.
	ErrInvalidMode = errors.New("pad: invalid mode")

	// ErrDuplicateModeKey is returned when two modes share the same key.
	ErrDuplicateModeKey = errors.New("pad: duplicate mode key")

	// ErrModeNotFound is returned when a mode key does not exist.
	ErrModeNotFound = errors.New("pad: mode not found")

	// ErrInvalidPortType is returned when a port type cannot be decoded.
	ErrInvalidPortType = errors.New("pad: invalid port type")

	// ErrInvalidConnectionState is returned for an unknown connection state.
	ErrInvalidConnectionState = errors.New("pad: invalid connection state")
)
