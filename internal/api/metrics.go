package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	MQTT          MQTTMetrics    `json:"mqtt"`
	Agents        AgentMetrics   `json:"agents"`
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
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// AgentMetrics summarises the agent registry.
type AgentMetrics struct {
	Total    int `json:"total"`
	Pong     int `json:"pong"`
	Sleeping int `json:"sleeping"`
	ToRename int `json:"to_rename"`

	// ListSizeHint and ParseTreeSize are the buffer sizes, in bytes,
	// a constrained client needs to receive and parse /api/list.
	ListSizeHint  int `json:"list_size_hint"`
	ParseTreeSize int `json:"parse_tree_size"`
}

// handleMetrics returns runtime, transport and registry metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
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
		Agents: s.agentMetrics(),
	}

	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{
			Enabled:   true,
			Connected: s.mqtt.IsConnected(),
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) agentMetrics() AgentMetrics {
	agents := s.registry.Snapshot()
	m := AgentMetrics{
		Total:         len(agents),
		ListSizeHint:  s.registry.ListSizeHint(),
		ParseTreeSize: s.registry.ParseTreeSize(),
	}
	for _, a := range agents {
		if a.Pong {
			m.Pong++
		}
		if a.CanSleep {
			m.Sleeping++
		}
		if a.ToRename {
			m.ToRename++
		}
	}
	return m
}
