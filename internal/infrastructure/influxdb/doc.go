// Package influxdb provides InfluxDB connectivity for ratpadd.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched point writes and health monitoring. The telemetry
// package feeds it pad input and connection transitions.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteMeasurement("pad_input",
//	    map[string]string{"device": "desk"},
//	    map[string]any{"slot": 4})
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking; async
// write failures are reported through SetOnError.
package influxdb
