package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errUnreachable = errors.New("unreachable")

// fakeProber records calls and fails for MACs listed in fail.
type fakeProber struct {
	mu        sync.Mutex
	fail      map[string]bool
	renameErr error
	pinged    []string
	reset     []string
	renamed   map[string]string
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		fail:    make(map[string]bool),
		renamed: make(map[string]string),
	}
}

func (p *fakeProber) Ping(_ context.Context, a Agent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pinged = append(p.pinged, a.MAC)
	if p.fail[a.MAC] {
		return errUnreachable
	}
	return nil
}

func (p *fakeProber) Reset(_ context.Context, a Agent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset = append(p.reset, a.MAC)
	if p.fail[a.MAC] {
		return errUnreachable
	}
	return nil
}

func (p *fakeProber) Rename(_ context.Context, a Agent, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renameErr != nil {
		return p.renameErr
	}
	p.renamed[a.MAC] = name
	return nil
}

type fakeDisplay struct {
	mu    sync.Mutex
	lines []string
}

func (d *fakeDisplay) SetLine(line int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, fmt.Sprintf("%d:%s", line, text))
}

func (d *fakeDisplay) all() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

type recordingObserver struct {
	NopObserver
	mu         sync.Mutex
	registered []bool
	refreshed  int
	probed     int
	renamed    []string
}

func (o *recordingObserver) AgentRegistered(_ Agent, created bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registered = append(o.registered, created)
}

func (o *recordingObserver) AgentRefreshed(Agent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshed++
}

func (o *recordingObserver) AgentProbed(Agent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.probed++
}

func (o *recordingObserver) AgentRenamed(a Agent, oldName string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.renamed = append(o.renamed, oldName+"->"+a.Name)
}

func registerBody(name, mac, ip string, extra string) []byte {
	body := fmt.Sprintf(`{"name":%q,"MAC":%q,"ip":%q`, name, mac, ip)
	if extra != "" {
		body += "," + extra
	}
	return []byte(body + "}")
}
