package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iotinator/iotinator-master/internal/agent"
)

type point struct {
	kind  string
	mac   string
	name  string
	value int64
}

type fakeWriter struct {
	mu     sync.Mutex
	points []point
}

func (w *fakeWriter) WriteAgentHeap(mac, name string, heap int32) {
	w.add(point{kind: "heap", mac: mac, name: name, value: int64(heap)})
}

func (w *fakeWriter) WriteAgentProbe(mac, name string, ok bool) {
	var v int64
	if ok {
		v = 1
	}
	w.add(point{kind: "probe", mac: mac, name: name, value: v})
}

func (w *fakeWriter) WriteAgentCount(count int) {
	w.add(point{kind: "count", value: int64(count)})
}

func (w *fakeWriter) add(p point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *fakeWriter) kinds() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.points))
	for i, p := range w.points {
		out[i] = p.kind
	}
	return out
}

type fixedCounter int

func (c fixedCounter) Count() int { return int(c) }

func TestObserver_AgentRegistered(t *testing.T) {
	tests := []struct {
		name    string
		created bool
		counter Counter
		want    string
	}{
		{"new agent writes heap and count", true, fixedCounter(3), "heap,count"},
		{"re-registration writes heap only", false, fixedCounter(3), "heap"},
		{"no counter", true, nil, "heap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			o := NewObserver(w, tt.counter)

			o.AgentRegistered(agent.Agent{MAC: "AA", Name: "kitchen", Heap: 21000}, tt.created)

			if got := strings.Join(w.kinds(), ","); got != tt.want {
				t.Errorf("points = %q, want %q", got, tt.want)
			}
			if w.points[0].value != 21000 || w.points[0].name != "kitchen" {
				t.Errorf("heap point = %+v", w.points[0])
			}
		})
	}
}

func TestObserver_AgentProbed(t *testing.T) {
	w := &fakeWriter{}
	o := NewObserver(w, nil)

	o.AgentProbed(agent.Agent{MAC: "AA", Name: "a"}, nil)
	o.AgentProbed(agent.Agent{MAC: "BB", Name: "b"}, errors.New("timeout"))

	if len(w.points) != 2 {
		t.Fatalf("got %d points, want 2", len(w.points))
	}
	if w.points[0].value != 1 || w.points[1].value != 0 {
		t.Errorf("probe values = %d, %d; want 1, 0", w.points[0].value, w.points[1].value)
	}
}

func TestObserver_IgnoresOtherEvents(t *testing.T) {
	w := &fakeWriter{}
	o := NewObserver(w, fixedCounter(1))

	o.AgentRefreshed(agent.Agent{MAC: "AA"})
	o.AgentReset(agent.Agent{MAC: "AA"}, nil)
	o.AgentRenamed(agent.Agent{MAC: "AA"}, "old")

	if len(w.points) != 0 {
		t.Errorf("got %d points, want none", len(w.points))
	}
}

func TestObserver_RecordSweep(t *testing.T) {
	w := &fakeWriter{}
	o := NewObserver(w, nil)
	o.RecordSweep(agent.PingReport{})
	if len(w.points) != 0 {
		t.Fatalf("wrote count without counter")
	}

	o.SetCounter(fixedCounter(5))
	o.RecordSweep(agent.PingReport{})
	if len(w.points) != 1 || w.points[0].value != 5 {
		t.Errorf("points = %+v, want one count of 5", w.points)
	}
}

func TestObserver_WithRegistry(t *testing.T) {
	w := &fakeWriter{}
	o := NewObserver(w, nil)
	reg := agent.NewRegistry(agent.Options{Observer: o})
	o.SetCounter(reg)

	body := `{"name":"kitchen","MAC":"AA:BB:CC:DD:EE:01","ip":"10.0.0.2","heap":1234}`
	if _, err := reg.Add(context.Background(), []byte(body)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if got := strings.Join(w.kinds(), ","); got != "heap,count" {
		t.Fatalf("points = %q, want heap,count", got)
	}
	if w.points[1].value != 1 {
		t.Errorf("count = %d, want 1", w.points[1].value)
	}
}
