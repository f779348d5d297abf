package api

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/mqtt"
)

// Domain event types. Each is also the WebSocket channel and the last
// segment of the MQTT event topic.
const (
	EventDeviceCreated      = "device.created"
	EventDeviceRemoved      = "device.removed"
	EventDeviceStateChanged = "device.state_changed"
	EventRoomCreated        = "room.created"
	EventRoomRemoved        = "room.removed"
	EventHouseCreated       = "house.created"
	EventHouseRemoved       = "house.removed"
)

// QoS for inbound toggle commands and for clearing retained state.
const (
	toggleQoS = 1
	stateQoS  = 1
)

// Event is the MQTT payload of a domain event.
type Event struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// emit fans an event out to WebSocket clients, InfluxDB and MQTT. Sink failures are
// logged and never reach the caller.
func (s *Server) emit(eventType string, payload any) {
	s.metrics.events.WithLabelValues(eventType).Inc()
	s.hub.Broadcast(eventType, payload)
	if s.influx != nil {
		s.influx.WriteEvent(eventType)
	}

	if s.mqtt == nil || !s.mqtt.IsConnected() {
		return
	}
	ev := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
	if err := s.mqtt.PublishJSON(mqtt.Topics{}.CoreEvent(eventType), ev, false); err != nil {
		s.logger.Warn("failed to publish event", "type", eventType, "error", err)
	}
}

// emitDevice emits a device event and updates the device's retained MQTT
// state, its InfluxDB history and its gauges. A removed device has its
// retained state cleared and its gauges dropped.
func (s *Server) emitDevice(eventType string, d *device.Device) {
	s.emit(eventType, d)

	removed := eventType == EventDeviceRemoved
	if removed {
		s.metrics.deleteDevice(d)
	} else {
		s.metrics.setDevice(d)
	}

	if s.mqtt != nil && s.mqtt.IsConnected() {
		topic := mqtt.Topics{}.CoreDeviceState(d.ID)
		var err error
		if removed {
			// An empty retained message clears the topic.
			err = s.mqtt.Publish(topic, []byte{}, stateQoS, true)
		} else {
			err = s.mqtt.PublishJSON(topic, d, true)
		}
		if err != nil {
			s.logger.Warn("failed to publish device state", "device_id", d.ID, "error", err)
		}
	}

	if s.influx != nil && !removed {
		s.influx.WriteDeviceState(influxdb.DeviceState{
			DeviceID: d.ID,
			Room:     d.Room,
			Type:     d.Type,
			State:    d.State,
			Variable: d.Variable,
		})
	}
}

// subscribeToggleCommands lets MQTT clients toggle devices by publishing to
// smarthouse/command/device/{id}/toggle.
func (s *Server) subscribeToggleCommands() error {
	if s.mqtt == nil {
		return nil
	}
	topic := mqtt.Topics{}.AllDeviceToggles()
	s.logger.Info("subscribing to toggle commands", "topic", topic)
	return s.mqtt.Subscribe(topic, toggleQoS, s.handleToggleCommand)
}

// unsubscribeToggleCommands stops accepting toggle commands. Failures are
// logged; the broker drops the subscription with the session anyway.
func (s *Server) unsubscribeToggleCommands() {
	topic := mqtt.Topics{}.AllDeviceToggles()
	if s.mqtt == nil || !s.mqtt.HasSubscription(topic) {
		return
	}
	if err := s.mqtt.Unsubscribe(topic); err != nil {
		s.logger.Warn("failed to unsubscribe from toggle commands", "topic", topic, "error", err)
	}
}

// handleToggleCommand toggles the device named by a command topic. The
// payload is ignored.
func (s *Server) handleToggleCommand(topic string, _ []byte) error {
	rawID, ok := mqtt.Topics{}.ParseDeviceToggle(topic)
	if !ok {
		return fmt.Errorf("unexpected toggle topic %q", topic)
	}
	_, err := s.toggleDevice(context.Background(), rawID, "mqtt")
	return err
}
