package pad

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PortKind is the discovered type of a serial port.
type PortKind string

// Port kinds as reported by the transport's port enumeration.
const (
	PortKindUSB       PortKind = "UsbPort"
	PortKindPCI       PortKind = "PciPort"
	PortKindBluetooth PortKind = "BluetoothPort"
	PortKindUnknown   PortKind = "Unknown"
)

// USBPortInfo describes a USB serial adapter.
type USBPortInfo struct {
	VendorID     uint16  `json:"vid"`
	ProductID    uint16  `json:"pid"`
	SerialNumber *string `json:"serial_number,omitempty"`
	Manufacturer *string `json:"manufacturer,omitempty"`
	Product      *string `json:"product,omitempty"`
}

// PortType is a tagged port descriptor. USB is set only for PortKindUSB.
//
// Wire forms:
//
//	"PciPort" | "BluetoothPort" | "Unknown" | {"UsbPort": {"vid": 9114, "pid": 32780}}
type PortType struct {
	Kind PortKind
	USB  *USBPortInfo
}

// USBPort returns a USB port type.
func USBPort(info USBPortInfo) PortType {
	return PortType{Kind: PortKindUSB, USB: &info}
}

// MarshalJSON encodes the unit kinds as strings and USB as a single-key object.
func (p PortType) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PortKindPCI, PortKindBluetooth, PortKindUnknown:
		return json.Marshal(string(p.Kind))
	case "":
		return json.Marshal(string(PortKindUnknown))
	case PortKindUSB:
		info := USBPortInfo{}
		if p.USB != nil {
			info = *p.USB
		}
		return json.Marshal(map[string]USBPortInfo{string(PortKindUSB): info})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPortType, string(p.Kind))
	}
}

// UnmarshalJSON decodes either wire form.
func (p *PortType) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var kind string
		if err := json.Unmarshal(trimmed, &kind); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPortType, err)
		}
		switch PortKind(kind) {
		case PortKindPCI, PortKindBluetooth, PortKindUnknown:
			*p = PortType{Kind: PortKind(kind)}
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrInvalidPortType, kind)
		}
	}

	var obj map[string]USBPortInfo
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPortType, err)
	}
	info, ok := obj[string(PortKindUSB)]
	if !ok || len(obj) != 1 {
		return fmt.Errorf("%w: expected single UsbPort object", ErrInvalidPortType)
	}
	*p = USBPort(info)
	return nil
}

// PortInfo is a serial port discovered by the transport.
type PortInfo struct {
	PortName string   `json:"port_name"`
	PortType PortType `json:"port_type"`
}
