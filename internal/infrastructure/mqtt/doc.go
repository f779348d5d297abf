// Package mqtt connects SmartHouse Core to an MQTT broker.
//
// The server uses MQTT in two directions:
//
//   - Outbound: every domain event is published to smarthouse/core/event/{type},
//     and each device's current state is published retained to
//     smarthouse/core/device/{id}/state.
//   - Inbound: messages on smarthouse/command/device/{id}/toggle toggle that
//     device through the repository, exactly like GET /device/{id}/state.
//
// The client reconnects on its own, replays subscriptions after a
// reconnect, and keeps a retained online/offline status (with a Last Will)
// on smarthouse/system/status.
//
// MQTT is optional (mqtt.enabled in config.yaml). When disabled the server
// runs without it and events go only to WebSocket clients and InfluxDB.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.CoreDeviceState(dev.ID), dev, true)
package mqtt
