// Package telemetry records pad activity as time-series points.
//
// Recorder subscribes to the bridge event channel and writes one point per
// event through a PointWriter, normally the InfluxDB client:
//
//	rec := telemetry.NewRecorder(influxClient, cfg.Device.ID)
//	rec.Attach(events)
//	defer rec.Detach()
//
// Points are tagged with the device ID. Input points are additionally
// tagged with the active mode and input type.
package telemetry
