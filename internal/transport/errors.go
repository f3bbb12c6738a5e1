package transport

import "errors"

// Sentinel errors for the MQTT transport.
var (
	// ErrNotStarted is returned by SendCommand before Start or after Stop.
	ErrNotStarted = errors.New("transport: not started")

	// ErrSendFailed indicates the command could not be published.
	ErrSendFailed = errors.New("transport: send failed")

	// ErrTimeout indicates the daemon did not answer in time.
	ErrTimeout = errors.New("transport: response timeout")

	// ErrClosed is returned to commands still pending when Stop is called.
	ErrClosed = errors.New("transport: closed")

	// ErrDaemon carries an error reported by the serial daemon.
	ErrDaemon = errors.New("transport: daemon error")

	// ErrBrokerDown is reported by HealthCheck while the broker link is down.
	ErrBrokerDown = errors.New("transport: broker not connected")

	// ErrNotSubscribed is reported by HealthCheck when a topic subscription
	// is missing.
	ErrNotSubscribed = errors.New("transport: topic not subscribed")

	// ErrBadEnvelope indicates an undecodable response envelope.
	ErrBadEnvelope = errors.New("transport: bad envelope")
)
