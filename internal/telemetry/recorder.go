package telemetry

import (
	"sync"

	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// Measurements written by the recorder.
const (
	MeasurementInput      = "pad_input"
	MeasurementConnection = "pad_connection"
	MeasurementConfig     = "pad_config"
	MeasurementLog        = "pad_log"
)

// PointWriter queues a point for the time-series store.
// *influxdb.Client satisfies it.
type PointWriter interface {
	WriteMeasurement(measurement string, tags map[string]string, fields map[string]any)
}

// Recorder turns pad events into time-series points: key presses and
// encoder movement, link transitions, config changes and device logs.
//
// Thread Safety: All methods are safe for concurrent use.
type Recorder struct {
	writer PointWriter
	device string

	mu          sync.Mutex
	unsubscribe func()
	logger      bridge.Logger
}

// NewRecorder creates a recorder tagging every point with device.
func NewRecorder(w PointWriter, device string) *Recorder {
	return &Recorder{writer: w, device: device}
}

// SetLogger sets the logger for undecodable input events.
func (r *Recorder) SetLogger(logger bridge.Logger) {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Attach subscribes the recorder to events. A second Attach replaces the
// first subscription.
func (r *Recorder) Attach(events *bridge.EventChannel) {
	unsub := events.Subscribe(r.Record)

	r.mu.Lock()
	prev := r.unsubscribe
	r.unsubscribe = unsub
	r.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach stops recording.
func (r *Recorder) Detach() {
	r.mu.Lock()
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Record writes the point for one event. Events with nothing to record
// are ignored.
func (r *Recorder) Record(e protocol.Event) {
	switch {
	case e.IsConnect():
		r.write(MeasurementConnection, nil, map[string]any{"connected": true})
	case e.IsDisconnect():
		r.write(MeasurementConnection, nil, map[string]any{"connected": false})
	case e.IsConfigChange():
		r.write(MeasurementConfig, nil, map[string]any{"changes": 1})
	case e.IsLog():
		r.write(MeasurementLog, nil, map[string]any{"message": e.LogMessage()})
	case e.IsInput():
		in, err := e.Input()
		if err != nil {
			r.log().Warn("dropping undecodable input", "error", err)
			return
		}
		r.recordInput(in)
	}
}

func (r *Recorder) recordInput(in protocol.Input) {
	tags := map[string]string{
		"mode": in.Mode,
		"type": string(in.Type),
	}
	fields := make(map[string]any, 3)

	switch in.Type {
	case protocol.InputTypeKey:
		fields["code"] = in.Key.Code
		fields["name"] = in.Key.Name
		if slot, ok := in.Slot(); ok {
			fields["slot"] = slot
		}
	case protocol.InputTypeEncoderSwitch:
		fields["pressed"] = *in.Pressed
	case protocol.InputTypeEncoderValue:
		fields["value"] = *in.Value
	}
	r.write(MeasurementInput, tags, fields)
}

func (r *Recorder) write(measurement string, tags map[string]string, fields map[string]any) {
	if tags == nil {
		tags = make(map[string]string, 1)
	}
	tags["device"] = r.device
	r.writer.WriteMeasurement(measurement, tags, fields)
}

func (r *Recorder) log() bridge.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logger == nil {
		return nopLogger{}
	}
	return r.logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
