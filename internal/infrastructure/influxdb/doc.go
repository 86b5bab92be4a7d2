// Package influxdb writes agent telemetry to InfluxDB v2.
//
// Writes are non-blocking and batched by the client library; failures are
// reported through the SetOnError callback. The master records each
// agent's free heap on registration, the outcome of every liveness probe
// and the size of the registry.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAgentHeap("AA:BB:CC:DD:EE:FF", "kitchen", 21000)
package influxdb
