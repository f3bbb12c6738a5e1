package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal encodes a request as a single flattened object, the namespace
// under "type" followed by the request fields:
//
//	{"type": "serial.connect", "port": "/dev/ttyACM0", "rate": 115200}
func Marshal(req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedMessage, req.Namespace(), err)
	}
	if len(body) < 2 || body[0] != '{' || body[len(body)-1] != '}' {
		return nil, fmt.Errorf("%w: %s: request is not an object", ErrMalformedMessage, req.Namespace())
	}
	tag, err := json.Marshal(req.Namespace())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if fields := bytes.TrimSpace(body[1 : len(body)-1]); len(fields) > 0 {
		buf.WriteByte(',')
		buf.Write(fields)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type typeHeader struct {
	Type Namespace `json:"type"`
}

// DecodeCommand decodes a flattened command into its request type.
// The request is not validated.
func DecodeCommand(data []byte) (Request, error) {
	var head typeHeader
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch head.Type {
	case NSSerialConnect:
		return decodeAs[SerialConnect](data)
	case NSSerialDisconnect:
		return decodeAs[SerialDisconnect](data)
	case NSSerialListPorts:
		return decodeAs[SerialListPorts](data)
	case NSSerialGetState:
		return decodeAs[SerialGetState](data)
	case NSConfigGetConfig:
		return decodeAs[ConfigGetConfig](data)
	case NSPadSetColor:
		return decodeAs[PadSetColor](data)
	case NSConfigWriteMode:
		return decodeAs[ConfigWriteMode](data)
	case NSConfigDeleteMode:
		return decodeAs[ConfigDeleteMode](data)
	case NSConfigClearModes:
		return decodeAs[ConfigClearModes](data)
	case NSPadSetHome:
		return decodeAs[PadSetHome](data)
	case NSPadSetMode:
		return decodeAs[PadSetMode](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, string(head.Type))
	}
}

func decodeAs[T Request](data []byte) (Request, error) {
	var req T
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedMessage, req.Namespace(), err)
	}
	return req, nil
}

// Response is the wire envelope of a command reply. Result is empty for
// fire-and-forget commands.
type Response struct {
	Type   Namespace       `json:"type"`
	Result json.RawMessage `json:"result,omitempty"`
}

// EncodeResponse builds a response for ns. A nil result omits the field.
func EncodeResponse(ns Namespace, result any) ([]byte, error) {
	resp := Response{Type: ns}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: result: %w", ErrMalformedMessage, ns, err)
		}
		resp.Result = raw
	}
	return json.Marshal(resp)
}

// DecodeResponse checks a reply answers ns and returns its raw result,
// which is nil when absent or null.
func DecodeResponse(ns Namespace, data []byte) (json.RawMessage, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if resp.Type == "" {
		return nil, fmt.Errorf("%w: response has no type", ErrMalformedMessage)
	}
	if resp.Type != ns {
		return nil, fmt.Errorf("%w: sent %s, got %s", ErrProtocolMismatch, ns, resp.Type)
	}
	if isAbsent(resp.Result) {
		return nil, nil
	}
	return resp.Result, nil
}

// DecodeResult decodes a raw result into the command's response type.
// It returns nil for an absent result and for fire-and-forget commands.
func DecodeResult[R any](cmd Command[R], raw json.RawMessage) (*R, error) {
	return cmd.decode(raw)
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
