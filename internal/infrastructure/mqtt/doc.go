// Package mqtt provides the MQTT client ratpadd uses to reach the serial
// daemon that owns the pad's USB port.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and subscriptions with wildcard support
//   - A retained online/offline status with Last Will and Testament
//
// # Topics
//
// Each pad has its own subtree, see Topics:
//
//	ratpad/{device}/command        ratpadd -> daemon
//	ratpad/{device}/response       daemon -> ratpadd
//	ratpad/{device}/event          daemon -> ratpadd
//	ratpad/{device}/bridge/status  retained, LWT
//
// # Security Considerations
//
//   - Enable TLS (mqtt.broker.tls) when the broker is not on localhost
//   - Credentials come from RATPAD_MQTT_USERNAME and RATPAD_MQTT_PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Device.ID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().Event(), 1, handleEvent)
package mqtt
