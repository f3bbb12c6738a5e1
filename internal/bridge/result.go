package bridge

import "github.com/nerrad567/ratpad-bridge/internal/protocol"

// FailureKind classifies a failed command.
type FailureKind string

// Failure kinds. A successful result has an empty kind.
const (
	FailureValidation FailureKind = "validation"
	FailureEncoding   FailureKind = "encoding"
	FailureTransport  FailureKind = "transport"
	// FailureProtocol is a reply that does not answer the command or
	// cannot be decoded. It counts as a transport failure.
	FailureProtocol FailureKind = "protocol"
)

// Result is the outcome of executing a command.
//
// Value is nil for fire-and-forget commands and whenever the pad omitted
// the result, so callers must check it even when OK is true.
type Result[R any] struct {
	OK      bool             `json:"ok"`
	Command protocol.Request `json:"-"`
	Value   *R               `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
	Kind    FailureKind      `json:"kind,omitempty"`

	err error
}

// Namespace returns the namespace of the executed command.
func (r Result[R]) Namespace() protocol.Namespace {
	if r.Command == nil {
		return ""
	}
	return r.Command.Namespace()
}

// Err returns the failure as an error, or nil on success. The error wraps
// ErrValidation, ErrEncoding or ErrTransport.
func (r Result[R]) Err() error {
	if r.OK {
		return nil
	}
	return r.err
}

func success[R any](cmd protocol.Request, v *R) Result[R] {
	return Result[R]{OK: true, Command: cmd, Value: v}
}

func failure[R any](cmd protocol.Request, kind FailureKind, err error) Result[R] {
	return Result[R]{Command: cmd, Error: err.Error(), Kind: kind, err: err}
}
