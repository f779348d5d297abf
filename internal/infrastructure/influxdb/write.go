package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the server.
const (
	// MeasurementDeviceState holds device state history.
	MeasurementDeviceState = "device_state"

	// MeasurementEntityEvent counts domain events, tagged by event type.
	MeasurementEntityEvent = "entity_event"
)

// DeviceState is one observation of a device's switch and variable.
type DeviceState struct {
	DeviceID string
	Room     string
	Type     string
	State    bool
	Variable int32
}

// WriteDeviceState records a device's state. The write is non-blocking.
//
//	client.WriteDeviceState(influxdb.DeviceState{
//	    DeviceID: dev.ID, Room: dev.Room, Type: dev.Type,
//	    State: dev.State, Variable: dev.Variable,
//	})
func (c *Client) WriteDeviceState(s DeviceState) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(deviceStatePoint(s, time.Now()))
}

// deviceStatePoint tags by device, room and type; state is stored as 0/1 so
// it can be aggregated.
func deviceStatePoint(s DeviceState, ts time.Time) *write.Point {
	state := 0
	if s.State {
		state = 1
	}
	return write.NewPoint(
		MeasurementDeviceState,
		map[string]string{
			"device_id": s.DeviceID,
			"room":      s.Room,
			"type":      s.Type,
		},
		map[string]any{
			"state":    state,
			"variable": s.Variable,
		},
		ts,
	)
}

// WriteEvent records one domain event such as "room.created".
func (c *Client) WriteEvent(eventType string) {
	c.WritePoint(MeasurementEntityEvent, map[string]string{"type": eventType}, map[string]any{"count": 1})
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
