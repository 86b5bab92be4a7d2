package display

import (
	"encoding/json"
	"sync"
)

// ChannelDisplayLine is the WebSocket channel carrying display lines.
const ChannelDisplayLine = "display.line"

// Broadcaster delivers a payload to subscribers of a channel without blocking.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubSink broadcasts every line to WebSocket subscribers of ChannelDisplayLine.
type HubSink struct {
	hub Broadcaster
}

// NewHubSink creates a HubSink.
func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

// SetLine implements agent.Display.
func (s *HubSink) SetLine(line int, text string) {
	s.hub.Broadcast(ChannelDisplayLine, Line{Line: line, Text: text})
}

// Publisher publishes a message on an MQTT topic.
type Publisher interface {
	PublishDefault(topic string, payload []byte) error
}

// mqttQueueSize bounds lines waiting to be published.
const mqttQueueSize = 32

// MQTTSink publishes every line on an MQTT topic from a background goroutine.
// Lines are dropped while the queue is full.
type MQTTSink struct {
	pub    Publisher
	topic  string
	logger Logger

	queue     chan Line
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMQTTSink creates an MQTTSink and starts its publishing goroutine.
// Call Close to stop it.
func NewMQTTSink(pub Publisher, topic string, logger Logger) *MQTTSink {
	s := &MQTTSink{
		pub:    pub,
		topic:  topic,
		logger: logger,
		queue:  make(chan Line, mqttQueueSize),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// SetLine implements agent.Display.
func (s *MQTTSink) SetLine(line int, text string) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.queue <- Line{Line: line, Text: text}:
	default:
		s.logger.Warn("display queue full, dropping line", "line", line)
	}
}

// Close stops the publishing goroutine, discarding queued lines.
func (s *MQTTSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *MQTTSink) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case l := <-s.queue:
			payload, err := json.Marshal(l)
			if err != nil {
				continue
			}
			if err := s.pub.PublishDefault(s.topic, payload); err != nil {
				s.logger.Warn("failed to publish display line", "error", err)
			}
		}
	}
}
