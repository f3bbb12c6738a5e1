package mqtt

import "fmt"

// TopicPrefix is the root of every ratpad topic.
const TopicPrefix = "ratpad"

// Topics builds the MQTT topics of one pad. ratpadd publishes commands and
// its own status; the serial daemon publishes responses and events.
//
//	topics := mqtt.Topics{Device: "desk"}
//	topics.Command()  // ratpad/desk/command
//	topics.Response() // ratpad/desk/response
//	topics.Event()    // ratpad/desk/event
type Topics struct {
	Device string
}

func (t Topics) device(suffix string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, t.Device, suffix)
}

// Command is where ratpadd publishes command envelopes.
func (t Topics) Command() string {
	return t.device("command")
}

// Response is where the daemon publishes command replies.
func (t Topics) Response() string {
	return t.device("response")
}

// Event is where the daemon publishes pad events.
func (t Topics) Event() string {
	return t.device("event")
}

// BridgeStatus carries ratpadd's retained online/offline status and LWT.
//
// Example: ratpad/desk/bridge/status
func (t Topics) BridgeStatus() string {
	return t.device("bridge/status")
}
