package bridge

import "context"

// Transport is the boundary to the pad's serial link. Framing, port
// handling and timeouts are the transport's concern.
type Transport interface {
	// SendCommand sends one flattened command and returns the pad's
	// response. It fails when the link is down or the pad does not answer.
	SendCommand(ctx context.Context, command []byte) ([]byte, error)

	// OnEvent registers a handler for device-originated events, delivered
	// in arrival order. The returned function removes the handler.
	OnEvent(handler func(payload []byte)) (unsubscribe func())
}

// Logger is the structured logging interface used by this package.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
