// Package display provides sinks for the master's transient status lines.
//
// The registry writes short human-readable lines ("Registering", an agent
// name, "Ping failed: ...") through the agent.Display interface. The sinks
// here forward them to the log, to the MQTT broker, to WebSocket clients
// and to an in-memory Screen that keeps the latest text of every line.
// Multi fans a line out to several sinks.
//
// No sink blocks the caller.
package display
