// Package agent provides the agent registry of the iotinator master.
//
// Agents are small networked peripherals that announce themselves to the
// master with a JSON body. The registry keeps one record per MAC address,
// answers listing requests, probes agents for liveness and resolves name
// collisions by renaming the newcomer.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                          Registry                             │
//	│                                                               │
//	│  ┌──────────────┐   ┌──────────────┐   ┌──────────────────┐   │
//	│  │ registry.go  │   │   list.go    │   │ sweep.go         │   │
//	│  │ Add, Refresh │   │ List, hints  │   │ Ping, Reset      │   │
//	│  └──────────────┘   └──────────────┘   └──────────────────┘   │
//	│  ┌──────────────┐                                             │
//	│  │  rename.go   │   Prober ──▶ device HTTP endpoints          │
//	│  │ RenameOne    │   Display ──▶ status lines                  │
//	│  └──────────────┘   Observer ──▶ audit, telemetry             │
//	└───────────────────────────────────────────────────────────────┘
//
// # Usage
//
//	reg := agent.NewRegistry(agent.Options{
//	    Prober:  httpprobe.New(httpprobe.Config{Port: 80, Timeout: 3 * time.Second}),
//	    Display: sink,
//	    Logger:  log,
//	})
//
//	a, err := reg.Add(ctx, body)
//	if errors.Is(err, agent.ErrDecode) {
//	    // malformed body
//	}
//
//	body := reg.List()
//	report := reg.Ping(ctx)
//	renamed := reg.RenamePending(ctx)
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Its map and rows are guarded
// by a read-write mutex; probes and collaborator callbacks run outside it.
package agent
