// Package api implements the HTTP API and WebSocket server for SmartHouse Core.
//
// This package provides:
//   - CRUD endpoints for houses, rooms and devices, plus the house report
//   - a WebSocket hub that pushes domain events to subscribed clients
//   - Prometheus metrics and a JSON system snapshot
//   - the middleware chain: request observation, panic recovery, CORS and
//     the body size limit
//
// # Responses
//
// Successful reads answer 200 and creates 201, always with a JSON body.
// Errors are plain text: a lookup miss is 404 "No {entity} found with UID:
// {id}", a malformed UUID in the path is 404 "UUID parsing failed: ...",
// validation failures are 400 and store failures 500. A request whose store
// calls outlive the acquire timeout answers 503.
//
// # Events
//
// Creates, removals and toggles emit device.*, room.* and house.* events.
// They are broadcast to WebSocket clients, published to MQTT when a client
// is configured, and device states are written to InfluxDB when enabled.
// None of these sinks can fail a request.
//
// # Event Feed
//
// GET /ws upgrades to a JSON feed. Channels are event types, an entity
// wildcard such as "device.*", or "*". They are given up front with
// ?channels= or later with {"type":"subscribe","channels":[...]}; an unknown
// channel is refused. Following device state changes first delivers a
// snapshot of every device. Clients may also send "unsubscribe", "ping" and
// {"type":"toggle","device_id":...}.
//
// # Graceful Degradation
//
// MQTT and InfluxDB are optional. Without them the HTTP surface and the
// WebSocket feed work unchanged.
package api
