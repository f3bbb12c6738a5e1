// Package api implements the HTTP REST API and WebSocket server the desktop
// UI uses to drive the pad.
//
// This package provides:
//   - REST endpoints for connection control, mode editing and colors
//   - A raw command endpoint that accepts any wire-format command
//   - WebSocket hub broadcasting pad events and state snapshots
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Channels
//
// WebSocket clients subscribe to channels by name:
//
//	{"type":"subscribe","payload":{"channels":["state.changed","pad.event"]}}
//
// state.changed carries an AppState and is sent once immediately on
// subscribe. pad.event carries every event the pad emits.
//
// # Errors
//
// Bridge errors map onto HTTP statuses: validation failures are 422,
// unknown modes 404, a connect already in flight 409 and transport
// failures 502.
package api
