package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultMaxPayloadSize is the largest request body accepted when Options leaves it unset.
const DefaultMaxPayloadSize = 2048

// Options configures a Registry. Nil collaborators are replaced by no-ops.
type Options struct {
	Prober         Prober
	Display        Display
	Observer       Observer
	Logger         Logger
	MaxPayloadSize int
}

// Registry tracks every agent that has registered with the master, keyed by MAC.
//
// The registry owns its agents and never removes them, so a MAC returned
// by Add stays valid for the registry's lifetime. Callers receive
// snapshots; the live rows are only touched under the registry lock.
//
// All public methods are safe for concurrent use. Network probes run
// without holding the lock.
type Registry struct {
	mu       sync.RWMutex
	agents   map[string]*Agent
	listSize int // cached list size hint, see refreshListSize

	prober         Prober
	display        Display
	observer       Observer
	logger         Logger
	maxPayloadSize int
	now            func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		agents:         make(map[string]*Agent),
		prober:         opts.Prober,
		display:        opts.Display,
		observer:       opts.Observer,
		logger:         opts.Logger,
		maxPayloadSize: opts.MaxPayloadSize,
		now:            func() time.Time { return time.Now().UTC() },
	}
	if r.prober == nil {
		r.prober = unreachableProber{}
	}
	if r.display == nil {
		r.display = noopDisplay{}
	}
	if r.observer == nil {
		r.observer = NopObserver{}
	}
	if r.logger == nil {
		r.logger = noopLogger{}
	}
	if r.maxPayloadSize <= 0 {
		r.maxPayloadSize = DefaultMaxPayloadSize
	}
	r.listSize = listBaseSize
	return r
}

// MaxPayloadSize returns the largest request body Add and Refresh accept.
func (r *Registry) MaxPayloadSize() int {
	return r.maxPayloadSize
}

// Add registers an agent, or resynchronises one that registered before.
//
// The body must decode to a JSON object carrying name, MAC and ip.
// Oversized or malformed bodies return ErrDecode; missing fields return
// ErrValidation. Neither mutates the registry.
//
// Every other field is overwritten: canSleep, custom, uiClassName, heap
// and pingPeriod take their zero value when absent. If another MAC
// already uses the name, the agent is flagged for a later rename.
func (r *Registry) Add(_ context.Context, payload []byte) (*Agent, error) {
	req, err := decodeRequest(payload, r.maxPayloadSize)
	if err != nil {
		r.logger.Warn("registration parse failure", "error", err, "payload", string(payload))
		return nil, err
	}

	name, err := required(req.Name, tagName)
	if err != nil {
		return nil, err
	}
	mac, err := req.requireMAC()
	if err != nil {
		return nil, err
	}
	ip, err := required(req.IP, tagIP)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("registering agent", "name", name, "mac", mac, "ip", ip)
	r.display.SetLine(LineTitle, "Registering")
	r.display.SetLine(LineDetail, name)

	now := r.now()

	r.mu.Lock()
	a, exists := r.agents[mac]
	if !exists {
		a = newAgent(name, mac, now)
		r.agents[mac] = a
	}

	a.CanSleep = req.CanSleep
	a.setCustom(req.custom())
	a.setUIClassName(req.UIClassName)
	a.Heap = req.Heap
	a.PingPeriod = req.PingPeriod
	a.setIP(ip)
	a.setName(name)
	a.UpdatedAt = now

	// The rename itself happens later, outside this request.
	if r.nameExistsLocked(a.Name, mac) {
		a.ToRename = true
	}

	r.refreshListSize()
	snap := a.snapshot()
	r.mu.Unlock()

	if snap.ToRename {
		r.logger.Info("agent name already in use, rename scheduled", "name", snap.Name, "mac", mac)
	}
	r.logger.Info("agent registered", "name", snap.Name, "mac", mac, "ip", snap.IP, "new", !exists)
	r.observer.AgentRegistered(*snap, !exists)

	return snap, nil
}

// Refresh updates the custom payload of an already registered agent.
//
// It never creates an agent: an unknown MAC returns ErrAgentNotFound.
func (r *Registry) Refresh(_ context.Context, payload []byte) (*Agent, error) {
	req, err := decodeRequest(payload, r.maxPayloadSize)
	if err != nil {
		r.logger.Warn("refresh parse failure", "error", err, "payload", string(payload))
		return nil, err
	}
	mac, err := req.requireMAC()
	if err != nil {
		r.logger.Warn("refresh rejected", "error", err)
		return nil, err
	}

	r.display.SetLine(LineTitle, "Refreshing")
	r.display.SetLine(LineDetail, mac)

	r.mu.Lock()
	a, ok := r.agents[mac]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("refresh for unknown agent", "mac", mac)
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, mac)
	}
	a.setCustom(req.custom())
	a.UpdatedAt = r.now()
	snap := a.snapshot()
	r.mu.Unlock()

	r.display.SetLine(LineDetail, snap.Name)
	r.logger.Debug("agent refreshed", "name", snap.Name, "mac", mac)
	r.observer.AgentRefreshed(*snap)

	return snap, nil
}

// Get returns a snapshot of the agent registered under mac.
func (r *Registry) Get(mac string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[mac]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, mac)
	}
	return a.snapshot(), nil
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Snapshot returns copies of every agent, ordered by MAC.
func (r *Registry) Snapshot() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []Agent {
	agents := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, *a.snapshot())
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].MAC < agents[j].MAC
	})
	return agents
}

// unreachableProber is used when no Prober is configured.
type unreachableProber struct{}

func (unreachableProber) Ping(context.Context, Agent) error {
	return fmt.Errorf("%w: no prober configured", ErrProbeFailed)
}

func (unreachableProber) Reset(context.Context, Agent) error {
	return fmt.Errorf("%w: no prober configured", ErrProbeFailed)
}

func (unreachableProber) Rename(context.Context, Agent, string) error {
	return fmt.Errorf("%w: no prober configured", ErrProbeFailed)
}
