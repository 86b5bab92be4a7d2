package agent

import (
	"context"
	"fmt"
)

// PingReport summarises a ping sweep by MAC.
type PingReport struct {
	Probed  []string `json:"probed"`
	Skipped []string `json:"skipped"`
	Failed  []string `json:"failed"`
}

// ResetReport summarises a reset sweep by MAC.
type ResetReport struct {
	Reset  []string `json:"reset"`
	Failed []string `json:"failed"`
}

// Ping probes every agent that is awake and has a ping period.
//
// Each probe's outcome is stored in the agent's Pong flag. A failed probe
// does not stop the sweep. Agents registered after the sweep starts are
// not visited. Cancelling ctx stops the sweep before the next probe.
func (r *Registry) Ping(ctx context.Context) PingReport {
	report := PingReport{
		Probed:  []string{},
		Skipped: []string{},
		Failed:  []string{},
	}

	for _, a := range r.Snapshot() {
		if ctx.Err() != nil {
			r.logger.Warn("ping sweep cancelled", "error", ctx.Err())
			break
		}
		if !a.Pingable() {
			report.Skipped = append(report.Skipped, a.MAC)
			continue
		}

		err := r.prober.Ping(ctx, a)
		report.Probed = append(report.Probed, a.MAC)

		snap := r.recordProbe(a.MAC, err == nil)
		if snap == nil {
			continue
		}
		if err != nil {
			report.Failed = append(report.Failed, a.MAC)
			r.display.SetLine(LineTitle, fmt.Sprintf("Ping failed: %s", snap.Name))
			r.logger.Warn("agent ping failed", "name", snap.Name, "mac", a.MAC, "error", err)
		} else {
			r.logger.Debug("agent ping ok", "name", snap.Name, "mac", a.MAC)
		}
		r.observer.AgentProbed(*snap, err)
	}

	return report
}

func (r *Registry) recordProbe(mac string, ok bool) *Agent {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, found := r.agents[mac]
	if !found {
		return nil
	}
	a.recordProbe(ok, r.now())
	return a.snapshot()
}

// Reset asks every registered agent to restart. Agents stay registered
// whatever the outcome. Cancelling ctx stops the sweep before the next agent.
func (r *Registry) Reset(ctx context.Context) ResetReport {
	report := ResetReport{
		Reset:  []string{},
		Failed: []string{},
	}

	for _, a := range r.Snapshot() {
		if ctx.Err() != nil {
			r.logger.Warn("reset sweep cancelled", "error", ctx.Err())
			break
		}

		err := r.prober.Reset(ctx, a)
		if err != nil {
			report.Failed = append(report.Failed, a.MAC)
			r.logger.Warn("agent reset nok", "name", a.Name, "mac", a.MAC, "error", err)
		} else {
			report.Reset = append(report.Reset, a.MAC)
			r.logger.Info("agent reset ok", "name", a.Name, "mac", a.MAC)
		}
		r.observer.AgentReset(a, err)
	}

	return report
}
