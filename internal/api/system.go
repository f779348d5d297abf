package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/mqtt"
)

// SystemSnapshot is the response of GET /api/v1/system.
type SystemSnapshot struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	InfluxDB      InfluxMetrics   `json:"influxdb"`
	Entities      EntityCounts    `json:"entities"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Enabled           bool        `json:"enabled"`
	Connected         bool        `json:"connected"`
	Subscriptions     int         `json:"subscriptions"`
	AcceptingCommands bool        `json:"accepting_commands"`
	Topics            *MQTTTopics `json:"topics,omitempty"`
}

// MQTTTopics lists the subscription patterns clients use to follow the
// server and the pattern it accepts toggle commands on.
type MQTTTopics struct {
	Events         string `json:"events"`
	DeviceStates   string `json:"device_states"`
	ToggleCommands string `json:"toggle_commands"`
}

func mqttTopicPatterns() *MQTTTopics {
	topics := mqtt.Topics{}
	return &MQTTTopics{
		Events:         topics.AllCoreEvents(),
		DeviceStates:   topics.AllCoreDeviceStates(),
		ToggleCommands: topics.AllDeviceToggles(),
	}
}

// InfluxMetrics reports whether state history is being recorded.
type InfluxMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// EntityCounts holds the number of stored houses, rooms and devices.
type EntityCounts struct {
	Houses  int64 `json:"houses"`
	Rooms   int64 `json:"rooms"`
	Devices int64 `json:"devices"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	MaxOpenConnections int   `json:"max_open_connections"`
	OpenConnections    int   `json:"open_connections"`
	InUse              int   `json:"in_use"`
	Idle               int   `json:"idle"`
	WaitCount          int64 `json:"wait_count"`
	WaitDurationMS     int64 `json:"wait_duration_ms"`
}

// handleSystem returns a snapshot of runtime, pool and entity statistics.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := SystemSnapshot{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
	}

	if s.mqtt != nil {
		snap.MQTT = MQTTMetrics{
			Enabled:       true,
			Connected:     s.mqtt.IsConnected(),
			Subscriptions: s.mqtt.SubscriptionCount(),

			AcceptingCommands: s.mqtt.HasSubscription(mqtt.Topics{}.AllDeviceToggles()),
			Topics:            mqttTopicPatterns(),
		}
	}
	if s.influx != nil {
		snap.InfluxDB = InfluxMetrics{Enabled: true, Connected: s.influx.IsConnected()}
	}

	dbStats := s.db.Stats()
	snap.Database = DatabaseMetrics{
		MaxOpenConnections: dbStats.MaxOpenConnections,
		OpenConnections:    dbStats.OpenConnections,
		InUse:              dbStats.InUse,
		Idle:               dbStats.Idle,
		WaitCount:          dbStats.WaitCount,
		WaitDurationMS:     dbStats.WaitDuration.Milliseconds(),
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()

	var err error
	if snap.Entities.Houses, err = s.locations.CountHouses(ctx); err != nil {
		s.writeError(w, r, "", "", err)
		return
	}
	if snap.Entities.Rooms, err = s.locations.CountRooms(ctx); err != nil {
		s.writeError(w, r, "", "", err)
		return
	}
	if snap.Entities.Devices, err = s.devices.Count(ctx); err != nil {
		s.writeError(w, r, "", "", err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
