package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the master.
const (
	measurementAgentHeap  = "agent_heap"
	measurementAgentProbe = "agent_probe"
	measurementAgentCount = "registry_agents"
	tagMAC                = "mac"
	tagName               = "name"
)

// WriteAgentHeap records the free heap an agent reported at registration.
func (c *Client) WriteAgentHeap(mac, name string, heap int32) {
	c.write(agentHeapPoint(mac, name, heap, time.Now()))
}

// WriteAgentProbe records the outcome of a liveness probe.
func (c *Client) WriteAgentProbe(mac, name string, ok bool) {
	c.write(agentProbePoint(mac, name, ok, time.Now()))
}

// WriteAgentCount records how many agents are registered.
func (c *Client) WriteAgentCount(count int) {
	c.write(agentCountPoint(count, time.Now()))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func agentHeapPoint(mac, name string, heap int32, at time.Time) *write.Point {
	return write.NewPoint(measurementAgentHeap,
		map[string]string{tagMAC: mac, tagName: name},
		map[string]any{"bytes": int64(heap)},
		at)
}

func agentProbePoint(mac, name string, ok bool, at time.Time) *write.Point {
	pong := int64(0)
	if ok {
		pong = 1
	}
	return write.NewPoint(measurementAgentProbe,
		map[string]string{tagMAC: mac, tagName: name},
		map[string]any{"pong": pong},
		at)
}

func agentCountPoint(count int, at time.Time) *write.Point {
	return write.NewPoint(measurementAgentCount,
		map[string]string{},
		map[string]any{"count": int64(count)},
		at)
}
