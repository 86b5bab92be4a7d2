// Package ingest accepts agent registrations and refreshes over MQTT.
//
// Bodies received on Topics.AgentRegister and Topics.AgentRefresh are
// handled exactly like the HTTP endpoints. After every successful call
// the agent receives its entry on Topics.AgentRegistered and the full
// agent list is republished, retained, on Topics.MasterAgents.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iotinator/iotinator-master/internal/agent"
	"github.com/iotinator/iotinator-master/internal/infrastructure/mqtt"
)

// Registry is the subset of agent.Registry used by the ingester.
type Registry interface {
	Add(ctx context.Context, payload []byte) (*agent.Agent, error)
	Refresh(ctx context.Context, payload []byte) (*agent.Agent, error)
	List() []byte
}

// Broker is the subset of mqtt.Client used by the ingester.
type Broker interface {
	SubscribeDefault(topic string, handler mqtt.MessageHandler) error
	PublishDefault(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

// Logger is the logging interface used by the ingester.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Ingester bridges MQTT agent traffic to the registry.
type Ingester struct {
	registry Registry
	broker   Broker
	logger   Logger
	ctx      context.Context
}

// New creates an Ingester. Call Start to subscribe.
func New(registry Registry, broker Broker) *Ingester {
	return &Ingester{
		registry: registry,
		broker:   broker,
		logger:   noopLogger{},
		ctx:      context.Background(),
	}
}

// SetLogger sets the logger. Not safe to call after Start.
func (i *Ingester) SetLogger(logger Logger) {
	if logger != nil {
		i.logger = logger
	}
}

// Start subscribes to the registration and refresh topics.
// ctx is passed to the registry for every message.
func (i *Ingester) Start(ctx context.Context) error {
	i.ctx = ctx

	topics := mqtt.Topics{}
	if err := i.broker.SubscribeDefault(topics.AgentRegister(), i.handleRegister); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topics.AgentRegister(), err)
	}
	if err := i.broker.SubscribeDefault(topics.AgentRefresh(), i.handleRefresh); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topics.AgentRefresh(), err)
	}
	return nil
}

func (i *Ingester) handleRegister(_ string, payload []byte) error {
	a, err := i.registry.Add(i.ctx, payload)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return i.acknowledge(a)
}

func (i *Ingester) handleRefresh(_ string, payload []byte) error {
	a, err := i.registry.Refresh(i.ctx, payload)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return i.acknowledge(a)
}

// acknowledge replies to the agent and republishes the list.
func (i *Ingester) acknowledge(a *agent.Agent) error {
	entry, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding agent %s: %w", a.MAC, err)
	}

	if err := i.broker.PublishDefault(mqtt.Topics{}.AgentRegistered(a.MAC), entry); err != nil {
		i.logger.Warn("failed to reply to agent", "mac", a.MAC, "error", err)
	}
	return i.PublishList()
}

// PublishList publishes the current agent list, retained.
func (i *Ingester) PublishList() error {
	if err := i.broker.PublishRetained(mqtt.Topics{}.MasterAgents(), i.registry.List()); err != nil {
		return fmt.Errorf("publishing agent list: %w", err)
	}
	i.logger.Debug("agent list published")
	return nil
}
