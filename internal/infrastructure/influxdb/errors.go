package influxdb

import "errors"

// Errors returned by Connect and HealthCheck. Telemetry is optional, so
// callers usually treat ErrDisabled as "run without it".
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed wraps a failed or unhealthy ping during Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrUnhealthy means the server answered the ping but reported itself
	// unhealthy.
	ErrUnhealthy = errors.New("influxdb: server not healthy")
)
