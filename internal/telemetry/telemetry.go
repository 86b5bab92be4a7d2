// Package telemetry turns registry events into time-series points.
//
// An Observer writes the heap an agent reports at registration, the
// outcome of every liveness probe, and the registry size whenever it may
// have changed. Points are batched by the underlying writer; nothing
// here blocks on the network.
package telemetry

import (
	"github.com/iotinator/iotinator-master/internal/agent"
)

// Writer receives telemetry points. Satisfied by *influxdb.Client.
type Writer interface {
	WriteAgentHeap(mac, name string, heap int32)
	WriteAgentProbe(mac, name string, ok bool)
	WriteAgentCount(count int)
}

// Counter reports the number of registered agents. Satisfied by *agent.Registry.
type Counter interface {
	Count() int
}

// Observer implements agent.Observer by writing points to a Writer.
type Observer struct {
	agent.NopObserver

	writer  Writer
	counter Counter
}

var _ agent.Observer = (*Observer)(nil)

// NewObserver creates an Observer. counter may be nil, in which case the
// registry size is never written.
func NewObserver(writer Writer, counter Counter) *Observer {
	return &Observer{writer: writer, counter: counter}
}

// SetCounter sets the registry size source. The registry is usually built
// after its observers, so the counter is wired in afterwards.
func (o *Observer) SetCounter(counter Counter) {
	o.counter = counter
}

// AgentRegistered implements agent.Observer.
func (o *Observer) AgentRegistered(a agent.Agent, created bool) {
	o.writer.WriteAgentHeap(a.MAC, a.Name, a.Heap)
	if created {
		o.writeCount()
	}
}

// AgentProbed implements agent.Observer.
func (o *Observer) AgentProbed(a agent.Agent, err error) {
	o.writer.WriteAgentProbe(a.MAC, a.Name, err == nil)
}

// RecordSweep writes the registry size after a ping sweep.
func (o *Observer) RecordSweep(agent.PingReport) {
	o.writeCount()
}

func (o *Observer) writeCount() {
	if o.counter == nil {
		return
	}
	o.writer.WriteAgentCount(o.counter.Count())
}
