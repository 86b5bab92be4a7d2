package display

import (
	"slices"
	"sync"

	"github.com/iotinator/iotinator-master/internal/agent"
)

// Line is one status line update, as published to remote sinks.
type Line struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Multi forwards every line to each sink in order.
type Multi []agent.Display

// SetLine implements agent.Display.
func (m Multi) SetLine(line int, text string) {
	for _, d := range m {
		d.SetLine(line, text)
	}
}

// Logger is the subset of logging.Logger used by the sinks.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// LogSink writes every line to a logger at debug level.
type LogSink struct {
	logger Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger Logger) *LogSink {
	return &LogSink{logger: logger}
}

// SetLine implements agent.Display.
func (s *LogSink) SetLine(line int, text string) {
	s.logger.Debug("display", "line", line, "text", text)
}

// Screen keeps the latest text written to each line.
type Screen struct {
	mu    sync.RWMutex
	lines map[int]string
}

// NewScreen creates an empty Screen.
func NewScreen() *Screen {
	return &Screen{lines: make(map[int]string)}
}

// SetLine implements agent.Display.
func (s *Screen) SetLine(line int, text string) {
	s.mu.Lock()
	s.lines[line] = text
	s.mu.Unlock()
}

// Lines returns the current lines ordered by line number.
func (s *Screen) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Line, 0, len(s.lines))
	for n, text := range s.lines {
		out = append(out, Line{Line: n, Text: text})
	}
	slices.SortFunc(out, func(a, b Line) int { return a.Line - b.Line })
	return out
}
