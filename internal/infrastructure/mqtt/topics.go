package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes. The full hierarchy is:
//
//	smarthouse/core/event/{type}              domain events (not retained)
//	smarthouse/core/device/{id}/state         device state (retained)
//	smarthouse/command/device/{id}/toggle     inbound toggle commands
//	smarthouse/system/status                  online/offline (retained, LWT)
const (
	// TopicPrefix is the root of every SmartHouse topic.
	TopicPrefix = "smarthouse"

	// TopicPrefixCore is the base for topics published by the server.
	TopicPrefixCore = TopicPrefix + "/core"

	// TopicPrefixCommand is the base for topics the server consumes.
	TopicPrefixCommand = TopicPrefix + "/command"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = TopicPrefix + "/system"

	// Wildcard matches exactly one topic level.
	Wildcard = "+"
)

// Topics provides builders for SmartHouse MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.CoreDeviceState("3f1c...")
//	// Returns: "smarthouse/core/device/3f1c.../state"
type Topics struct{}

// CoreEvent returns the topic for a domain event.
//
// Example: smarthouse/core/event/device.state_changed
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// CoreDeviceState returns the retained state topic of a device.
//
// Example: smarthouse/core/device/3f1c.../state
func (Topics) CoreDeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefixCore, deviceID)
}

// DeviceToggle returns the command topic that toggles a device.
//
// Example: smarthouse/command/device/3f1c.../toggle
func (Topics) DeviceToggle(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/toggle", TopicPrefixCommand, deviceID)
}

// SystemStatus returns the system status topic.
//
// Example: smarthouse/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllCoreEvents returns a pattern matching every domain event.
//
// Pattern: smarthouse/core/event/+
func (t Topics) AllCoreEvents() string {
	return t.CoreEvent(Wildcard)
}

// AllCoreDeviceStates returns a pattern matching every device state topic.
//
// Pattern: smarthouse/core/device/+/state
func (t Topics) AllCoreDeviceStates() string {
	return t.CoreDeviceState(Wildcard)
}

// AllDeviceToggles returns a pattern matching every toggle command.
//
// Pattern: smarthouse/command/device/+/toggle
func (t Topics) AllDeviceToggles() string {
	return t.DeviceToggle(Wildcard)
}

// ParseDeviceToggle extracts the device ID from a toggle command topic.
func (Topics) ParseDeviceToggle(topic string) (deviceID string, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefixCommand+"/device/")
	if !found {
		return "", false
	}
	id, found := strings.CutSuffix(rest, "/toggle")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
