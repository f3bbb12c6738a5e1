package protocol

import "errors"

// Domain errors for the command protocol.
var (
	// ErrUnknownNamespace is returned when a command or response carries a
	// namespace outside the registry.
	ErrUnknownNamespace = errors.New("protocol: unknown namespace")

	// ErrInvalidNamespace is returned when a namespace is not of the form
	// domain.action.
	ErrInvalidNamespace = errors.New("protocol: invalid namespace")

	// ErrProtocolMismatch is returned when a response's type does not match
	// the command it answers.
	ErrProtocolMismatch = errors.New("protocol: response does not match command")

	// ErrMalformedMessage is returned when a command, response or event is
	// not a JSON object of the expected shape.
	ErrMalformedMessage = errors.New("protocol: malformed message")

	// ErrInvalidRequest is returned when a request payload fails validation.
	ErrInvalidRequest = errors.New("protocol: invalid request")

	// ErrUnknownEvent is returned for an event type outside
	// connect/disconnect/event/log, or an event_type outside the known set.
	ErrUnknownEvent = errors.New("protocol: unknown event")

	// ErrInvalidInput is returned when a pad input payload cannot be parsed.
	ErrInvalidInput = errors.New("protocol: invalid pad input")
)
