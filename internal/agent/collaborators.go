package agent

import "context"

// Logger defines the logging interface used by the Registry.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Prober reaches a physical agent over the network.
//
// Implementations own their timeouts; the Registry only passes the
// caller's context through. The Agent argument is a snapshot.
type Prober interface {
	// Ping checks the agent answers.
	Ping(ctx context.Context, a Agent) error

	// Reset asks the device to restart.
	Reset(ctx context.Context, a Agent) error

	// Rename pushes a new name to the device.
	Rename(ctx context.Context, a Agent, name string) error
}

// Display lines used for transient status.
const (
	LineTitle  = 1
	LineDetail = 2
)

// Display receives transient human-readable status lines.
// Calls must not block; nothing is ever read back.
type Display interface {
	SetLine(line int, text string)
}

type noopDisplay struct{}

func (noopDisplay) SetLine(int, string) {}

// Observer is notified after registry events complete.
// Callbacks run on the caller's goroutine, outside the registry lock,
// and receive snapshots.
type Observer interface {
	AgentRegistered(a Agent, created bool)
	AgentRefreshed(a Agent)
	AgentProbed(a Agent, err error)
	AgentReset(a Agent, err error)
	AgentRenamed(a Agent, oldName string)
}

// NopObserver implements Observer with no-ops. Embed it to handle a subset of events.
type NopObserver struct{}

func (NopObserver) AgentRegistered(Agent, bool) {}
func (NopObserver) AgentRefreshed(Agent)        {}
func (NopObserver) AgentProbed(Agent, error)    {}
func (NopObserver) AgentReset(Agent, error)     {}
func (NopObserver) AgentRenamed(Agent, string)  {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) AgentRegistered(a Agent, created bool) {
	for _, obs := range o {
		obs.AgentRegistered(a, created)
	}
}

func (o Observers) AgentRefreshed(a Agent) {
	for _, obs := range o {
		obs.AgentRefreshed(a)
	}
}

func (o Observers) AgentProbed(a Agent, err error) {
	for _, obs := range o {
		obs.AgentProbed(a, err)
	}
}

func (o Observers) AgentReset(a Agent, err error) {
	for _, obs := range o {
		obs.AgentReset(a, err)
	}
}

func (o Observers) AgentRenamed(a Agent, oldName string) {
	for _, obs := range o {
		obs.AgentRenamed(a, oldName)
	}
}
