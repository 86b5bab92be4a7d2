// Package cli implements iotctl, the operator command line for an
// iotinator master.
//
// iotctl talks to the master's HTTP API only:
//
//	iotctl list               # table of registered agents
//	iotctl get AA:BB:..       # one agent with bookkeeping fields
//	iotctl ping               # run a ping sweep now
//	iotctl reset --yes        # restart every agent
//	iotctl health             # master status and registry metrics
//
// The master address comes from --master or IOTINATOR_MASTER.
package cli
