// Package transport connects the bridge to a pad through the serial daemon
// over MQTT.
//
// ratpadd never opens the serial port itself. A daemon next to the pad owns
// the port and relays traffic on three topics per device:
//
//	ratpad/{device}/command   {"id": "<uuid>", "command": {...}}
//	ratpad/{device}/response  {"id": "<uuid>", "response": {...}} or {"id": ..., "error": "..."}
//	ratpad/{device}/event     the pad event, verbatim
//
// MQTT implements bridge.Transport:
//
//	t := transport.NewMQTT(mqttClient, mqttClient.Topics(), mqttClient.QoS(), cfg.GetCommandTimeout())
//	if err := t.Start(); err != nil {
//	    return err
//	}
//	defer t.Stop()
//	exec := bridge.NewExecutor(t)
package transport
