package bridge

import "errors"

// Domain errors for the command bridge.
var (
	// ErrValidation is returned when a request fails local validation.
	// Such requests are never sent to the transport.
	ErrValidation = errors.New("bridge: validation failed")

	// ErrEncoding is returned when a request cannot be serialized.
	ErrEncoding = errors.New("bridge: encoding failed")

	// ErrTransport is returned when the transport fails, panics, or
	// replies with a response that does not answer the command.
	ErrTransport = errors.New("bridge: transport failed")

	// ErrConnectInFlight is returned by Store.Connect while a previous
	// connect attempt is still waiting for the pad.
	ErrConnectInFlight = errors.New("bridge: connect already in flight")

	// ErrRefreshSuperseded is returned when a refresh completed after a
	// connection change or a newer refresh, and its result was discarded.
	ErrRefreshSuperseded = errors.New("bridge: refresh superseded")

	// ErrEmptyConfig is returned when config.get_config succeeds without
	// a configuration.
	ErrEmptyConfig = errors.New("bridge: pad returned no configuration")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("bridge: store closed")
)
