package audit

import (
	"context"
	"time"

	"github.com/iotinator/iotinator-master/internal/agent"
)

// SourceRegistry marks entries written by the Recorder.
const SourceRegistry = "registry"

const writeTimeout = 2 * time.Second

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder writes registry events to a Repository.
//
// Successful pings are not recorded.
type Recorder struct {
	repo   Repository
	logger Logger
}

var _ agent.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder. logger may be nil.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger}
}

// AgentRegistered implements agent.Observer.
func (r *Recorder) AgentRegistered(a agent.Agent, created bool) {
	r.record(ActionRegister, a, map[string]any{
		"name":      a.Name,
		"ip":        a.IP,
		"created":   created,
		"to_rename": a.ToRename,
	})
}

// AgentRefreshed implements agent.Observer.
func (r *Recorder) AgentRefreshed(a agent.Agent) {
	r.record(ActionRefresh, a, map[string]any{"name": a.Name})
}

// AgentProbed implements agent.Observer.
func (r *Recorder) AgentProbed(a agent.Agent, err error) {
	if err == nil {
		return
	}
	r.record(ActionProbe, a, map[string]any{"name": a.Name, "error": err.Error()})
}

// AgentReset implements agent.Observer.
func (r *Recorder) AgentReset(a agent.Agent, err error) {
	details := map[string]any{"name": a.Name, "ok": err == nil}
	if err != nil {
		details["error"] = err.Error()
	}
	r.record(ActionReset, a, details)
}

// AgentRenamed implements agent.Observer.
func (r *Recorder) AgentRenamed(a agent.Agent, oldName string) {
	r.record(ActionRename, a, map[string]any{"old_name": oldName, "name": a.Name})
}

func (r *Recorder) record(action string, a agent.Agent, details map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := r.repo.Create(ctx, &AuditLog{
		Action:     action,
		EntityType: EntityAgent,
		EntityID:   a.MAC,
		Source:     SourceRegistry,
		Details:    details,
	})
	if err != nil {
		r.logger.Warn("failed to write audit log", "action", action, "mac", a.MAC, "error", err)
	}
}
