// Package protocol defines the command and event wire protocol spoken
// between ratpadd and the pad's serial transport.
//
// Commands are a closed set keyed by a dotted namespace (domain.action).
// Each request type embeds its response type, so the generic executor
// can return a typed result without a type switch:
//
//	req := protocol.SerialListPorts{}
//	data, _ := protocol.Marshal(req) // {"type":"serial.list_ports"}
//
// Commands are flattened on the wire, the namespace under "type" next to
// the request fields. Responses are {"type": ns, "result"?: value}; an
// absent result is valid and means "no value".
//
// Events are tagged on "type" (connect, disconnect, event, log). Generic
// events carry a secondary event_type and opaque data. Pad input (key
// presses and encoder changes) arrives as event_type "event" and is
// decoded with ParseInput.
package protocol
