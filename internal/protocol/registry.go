package protocol

import (
	"fmt"
	"strings"
)

// Namespace identifies a command as domain.action.
type Namespace string

// Command domains.
const (
	DomainSerial = "serial"
	DomainPad    = "pad"
	DomainConfig = "config"
)

// Registered command namespaces.
const (
	NSSerialConnect    Namespace = "serial.connect"
	NSSerialDisconnect Namespace = "serial.disconnect"
	NSSerialListPorts  Namespace = "serial.list_ports"
	NSSerialGetState   Namespace = "serial.get_state"
	NSConfigGetConfig  Namespace = "config.get_config"
	NSPadSetColor      Namespace = "pad.set_color"
	NSConfigWriteMode  Namespace = "config.write_mode"
	NSConfigDeleteMode Namespace = "config.delete_mode"
	NSConfigClearModes Namespace = "config.clear_modes"
	NSPadSetHome       Namespace = "pad.set_home"
	NSPadSetMode       Namespace = "pad.set_mode"
)

// CommandInfo describes one registry entry.
type CommandInfo struct {
	Namespace Namespace `json:"namespace"`
	// HasResponse is false for fire-and-forget commands, whose responses
	// never carry a result the caller may rely on.
	HasResponse bool `json:"has_response"`
}

// registry lists every command in declaration order.
var registry = []CommandInfo{
	{Namespace: NSSerialConnect},
	{Namespace: NSSerialDisconnect},
	{Namespace: NSSerialListPorts, HasResponse: true},
	{Namespace: NSSerialGetState, HasResponse: true},
	{Namespace: NSConfigGetConfig, HasResponse: true},
	{Namespace: NSPadSetColor},
	{Namespace: NSConfigWriteMode},
	{Namespace: NSConfigDeleteMode},
	{Namespace: NSConfigClearModes},
	{Namespace: NSPadSetHome},
	{Namespace: NSPadSetMode},
}

// Lookup returns the registry entry for ns.
func Lookup(ns Namespace) (CommandInfo, bool) {
	for _, s := range registry {
		if s.Namespace == ns {
			return s, true
		}
	}
	return CommandInfo{}, false
}

// Commands returns a copy of the registry.
func Commands() []CommandInfo {
	return append([]CommandInfo(nil), registry...)
}

// Domain returns the part before the dot.
func (ns Namespace) Domain() string {
	domain, _, _ := strings.Cut(string(ns), ".")
	return domain
}

// Action returns the part after the dot.
func (ns Namespace) Action() string {
	_, action, _ := strings.Cut(string(ns), ".")
	return action
}

// Validate checks ns is well formed and registered.
func (ns Namespace) Validate() error {
	domain, action, ok := strings.Cut(string(ns), ".")
	if !ok || action == "" || strings.Contains(action, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, string(ns))
	}
	switch domain {
	case DomainSerial, DomainPad, DomainConfig:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, string(ns))
	}
	if _, ok := Lookup(ns); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNamespace, string(ns))
	}
	return nil
}
