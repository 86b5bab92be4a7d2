package agent

import "time"

// Field length bounds, matching what agent firmware can store.
const (
	// NameMaxLength is the longest human-readable agent name.
	NameMaxLength = 20

	// MACMaxLength fits "AA:BB:CC:DD:EE:FF".
	MACMaxLength = 17

	// IPMaxLength leaves room for two dotted quads separated by a comma,
	// as reported by agents that are both station and access point.
	IPMaxLength = 31

	// UIClassNameMaxLength is the longest UI class-name tag.
	UIClassNameMaxLength = 20
)

// Agent is a peripheral device registered with the master.
//
// MAC is immutable once the agent is in the registry. Every other field
// is overwritten by a later registration; Custom is also updated by a
// refresh. Values handed out by the Registry are snapshots.
type Agent struct {
	MAC         string  `json:"mac"`
	Name        string  `json:"name"`
	IP          string  `json:"ip"`
	CanSleep    bool    `json:"canSleep"`
	Heap        int32   `json:"heap"`
	PingPeriod  int     `json:"pingPeriod"`
	UIClassName string  `json:"uiClassName"`
	Custom      *string `json:"custom,omitempty"`

	// Pong is the outcome of the most recent liveness probe.
	Pong bool `json:"pong"`

	// ToRename is set when another MAC already uses Name.
	ToRename bool `json:"toRename"`

	RegisteredAt time.Time  `json:"registeredAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastPingAt   *time.Time `json:"lastPingAt,omitempty"`
}

// newAgent creates an agent the first time its MAC registers.
func newAgent(name, mac string, now time.Time) *Agent {
	a := &Agent{
		MAC:          mac,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	a.setName(name)
	return a
}

// snapshot returns an independent copy of the agent.
// Custom and LastPingAt point at immutable values and can be shared.
func (a *Agent) snapshot() *Agent {
	cpy := *a
	return &cpy
}

// Pingable reports whether the ping sweep probes this agent.
// Sleeping agents and agents without a ping period never are.
func (a *Agent) Pingable() bool {
	return !a.CanSleep && a.PingPeriod > 0
}

func (a *Agent) setName(name string) {
	a.Name = truncate(name, NameMaxLength)
}

func (a *Agent) setIP(ip string) {
	a.IP = truncate(ip, IPMaxLength)
}

func (a *Agent) setUIClassName(class string) {
	a.UIClassName = truncate(class, UIClassNameMaxLength)
}

func (a *Agent) setCustom(custom *string) {
	if custom == nil {
		a.Custom = nil
		return
	}
	v := *custom
	a.Custom = &v
}

// recordProbe stores the outcome of a liveness probe.
func (a *Agent) recordProbe(ok bool, at time.Time) {
	a.Pong = ok
	a.LastPingAt = &at
}

// renameTo applies a name the device has accepted and clears the rename flag.
func (a *Agent) renameTo(name string, at time.Time) {
	a.setName(name)
	a.ToRename = false
	a.UpdatedAt = at
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
