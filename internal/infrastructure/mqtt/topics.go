package mqtt

import "fmt"

// Topic prefixes of the iotinator MQTT hierarchy.
const (
	// TopicPrefixAgent is the base for topics agents publish to or receive on.
	TopicPrefixAgent = "iotinator/agent"

	// TopicPrefixMaster is the base for topics the master publishes.
	TopicPrefixMaster = "iotinator/master"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "iotinator/system"
)

// Topics provides builders for iotinator MQTT topics.
//
//	topic := mqtt.Topics{}.AgentRegistered("AA:BB:CC:DD:EE:FF")
//	// Returns: "iotinator/agent/AA:BB:CC:DD:EE:FF/registered"
type Topics struct{}

// AgentRegister is where agents publish registration bodies.
func (Topics) AgentRegister() string {
	return TopicPrefixAgent + "/register"
}

// AgentRefresh is where agents publish refresh bodies.
func (Topics) AgentRefresh() string {
	return TopicPrefixAgent + "/refresh"
}

// AgentRegistered returns the reply topic for one agent.
//
// Example: iotinator/agent/AA:BB:CC:DD:EE:FF/registered
func (Topics) AgentRegistered(mac string) string {
	return fmt.Sprintf("%s/%s/registered", TopicPrefixAgent, mac)
}

// MasterAgents carries the retained agent list.
func (Topics) MasterAgents() string {
	return TopicPrefixMaster + "/agents"
}

// MasterDisplay carries display status lines.
func (Topics) MasterDisplay() string {
	return TopicPrefixMaster + "/display"
}

// SystemStatus returns the master online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
