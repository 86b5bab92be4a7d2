// Package mqtt provides MQTT client connectivity for the iotinator master.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after every reconnect
//   - Last Will and Testament (LWT) so agents notice a dead master
//
// # Architecture
//
// Agents that cannot reach the master over HTTP register and refresh
// through the broker. The master replies on a per-agent topic and keeps
// the current agent list retained for dashboards.
//
//	Agents ↔ MQTT Broker ↔ iotinator master
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AgentRegister(), 1,
//	    func(topic string, payload []byte) error {
//	        _, err := registry.Add(ctx, payload)
//	        return err
//	    })
//
//	client.PublishRetained(mqtt.Topics{}.MasterAgents(), registry.List())
package mqtt
