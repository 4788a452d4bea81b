package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the /metrics body. Sections for optional components
// stay zero when the component is not wired.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	Session       SessionMetrics  `json:"session"`
	Cache         CacheMetrics    `json:"cache"`
	Checkin       CheckinMetrics  `json:"checkin"`
	Sinks         SinkMetrics     `json:"sinks"`
	Database      DatabaseMetrics `json:"database"`
}

type RuntimeMetrics struct {
	Goroutines int     `json:"goroutines"`
	HeapMB     float64 `json:"heap_mb"`
	GCCycles   uint32  `json:"gc_cycles"`
}

type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

type SessionMetrics struct {
	State    string `json:"state"`
	SignedIn bool   `json:"signed_in"`
}

type CacheMetrics struct {
	Entries int `json:"entries"`
}

type CheckinMetrics struct {
	Status string `json:"status,omitempty"`
}

// SinkMetrics reports whether the optional outcome publishers are up.
type SinkMetrics struct {
	MQTTConnected     bool `json:"mqtt_connected"`
	InfluxDBConnected bool `json:"influxdb_connected"`
}

type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	WaitCount       int64 `json:"wait_count"`
}

func readRuntimeMetrics() RuntimeMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return RuntimeMetrics{
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     float64(ms.HeapAlloc) / (1 << 20),
		GCCycles:   ms.NumGC,
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	m := SystemMetrics{
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(now.Sub(s.startTime) / time.Second),
		Runtime:       readRuntimeMetrics(),
		WebSocket:     WSMetrics{ConnectedClients: s.hub.Clients()},
		Session: SessionMetrics{
			State:    s.auth.State().String(),
			SignedIn: s.auth.Current() != nil,
		},
		Sinks: SinkMetrics{
			MQTTConnected:     s.mqtt.IsConnected(),
			InfluxDBConnected: s.influx.IsConnected(),
		},
	}

	if s.cache != nil {
		m.Cache.Entries = s.cache.Len()
	}
	if s.checkin != nil {
		m.Checkin.Status = s.checkin.State().Status.String()
	}
	if s.db != nil {
		st := s.db.Stats()
		m.Database = DatabaseMetrics{OpenConnections: st.OpenConnections, InUse: st.InUse, WaitCount: st.WaitCount}
	}

	writeJSON(w, http.StatusOK, m)
}
