package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint queues p for the next batch. Points written after Close are
// counted as dropped.
func (c *Client) WritePoint(p *write.Point) {
	if p == nil {
		return
	}
	if !c.IsConnected() {
		c.dropped.Add(1)
		return
	}
	c.writeAPI.WritePoint(p)
	c.written.Add(1)
}

// WriteMeasurement queues a point stamped with the current time.
//
//	client.WriteMeasurement("pad_input",
//	    map[string]string{"device": "desk", "mode": "edit"},
//	    map[string]any{"slot": 4})
func (c *Client) WriteMeasurement(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
