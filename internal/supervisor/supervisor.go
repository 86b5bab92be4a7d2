// Package supervisor runs the periodic sweeps over the agent registry:
// the liveness ping and the deferred rename of colliding agents.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/iotinator/iotinator-master/internal/agent"
)

// Registry is the subset of agent.Registry the supervisor drives.
type Registry interface {
	Ping(ctx context.Context) agent.PingReport
	RenamePending(ctx context.Context) int
}

// Logger is the logging interface used by the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Config holds configuration for the supervisor.
type Config struct {
	// PingInterval is how often the ping sweep runs. Zero disables it.
	PingInterval time.Duration

	// RenameInterval is how often flagged agents are renamed. Zero disables it.
	RenameInterval time.Duration

	// OnPing, if set, receives every ping report.
	OnPing func(agent.PingReport)

	// OnRename, if set, is called after a rename pass that renamed at least one agent.
	OnRename func(renamed int)
}

// Supervisor schedules registry sweeps on tickers.
//
// Each sweep runs on its own goroutine, and a sweep never overlaps
// with itself: a tick arriving during a slow sweep is dropped.
type Supervisor struct {
	registry Registry
	cfg      Config
	logger   Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a supervisor. Call Start to begin sweeping.
func New(registry Registry, cfg Config) *Supervisor {
	return &Supervisor{
		registry: registry,
		cfg:      cfg,
		logger:   noopLogger{},
		done:     make(chan struct{}),
	}
}

// SetLogger sets the logger. Not safe to call after Start.
func (s *Supervisor) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Start launches the enabled sweep loops. They stop when ctx is cancelled or Stop is called.
func (s *Supervisor) Start(ctx context.Context) {
	if s.cfg.PingInterval > 0 {
		s.wg.Add(1)
		go s.loop(ctx, s.cfg.PingInterval, s.ping)
	}
	if s.cfg.RenameInterval > 0 {
		s.wg.Add(1)
		go s.loop(ctx, s.cfg.RenameInterval, s.rename)
	}
}

// Stop waits for running sweeps to finish. Safe to call multiple times.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Supervisor) loop(ctx context.Context, interval time.Duration, sweep func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Sweeps observe Stop through their context.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}

func (s *Supervisor) ping(ctx context.Context) {
	report := s.registry.Ping(ctx)
	s.logger.Debug("ping sweep complete",
		"probed", len(report.Probed),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	if s.cfg.OnPing != nil {
		s.cfg.OnPing(report)
	}
}

func (s *Supervisor) rename(ctx context.Context) {
	n := s.registry.RenamePending(ctx)
	if n == 0 {
		return
	}
	s.logger.Info("renamed colliding agents", "count", n)
	if s.cfg.OnRename != nil {
		s.cfg.OnRename(n)
	}
}
