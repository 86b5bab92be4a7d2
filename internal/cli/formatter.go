package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/iotinator/iotinator-master/internal/agent"
)

// Formatter renders master answers for a terminal.
type Formatter struct {
	Writer io.Writer

	header    *color.Color
	label     *color.Color
	success   *color.Color
	failure   *color.Color
	secondary *color.Color
}

// NewFormatter creates a Formatter writing to w. With noColor set, no
// escape sequences are written.
func NewFormatter(w io.Writer, noColor bool) *Formatter {
	f := &Formatter{
		Writer:    w,
		header:    color.New(color.Bold, color.FgCyan),
		label:     color.New(color.FgHiBlue),
		success:   color.New(color.FgGreen),
		failure:   color.New(color.FgRed),
		secondary: color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{f.header, f.label, f.success, f.failure, f.secondary} {
			c.DisableColor()
		}
	}
	return f
}

// PrintAgents renders the listing as a table ordered by MAC.
func (f *Formatter) PrintAgents(entries map[string]ListEntry) error {
	if len(entries) == 0 {
		f.secondary.Fprintln(f.Writer, "No agents registered.")
		return nil
	}

	macs := make([]string, 0, len(entries))
	for mac := range entries {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	rows := make([][]string, 0, len(macs))
	for _, mac := range macs {
		e := entries[mac]
		rows = append(rows, []string{
			mac,
			e.Name,
			e.IP,
			f.pong(e.Pong, e.CanSleep),
			e.UIClassName,
			strconv.Itoa(int(e.Heap)),
			custom(e.Custom),
		})
	}

	if err := f.table([]string{"MAC", "Name", "IP", "Pong", "UI class", "Heap", "Custom"}, rows); err != nil {
		return err
	}
	f.secondary.Fprintf(f.Writer, "%d agent(s)\n", len(entries))
	return nil
}

// PrintAgent renders one agent as label/value lines.
func (f *Formatter) PrintAgent(a *agent.Agent) {
	f.header.Fprintln(f.Writer, a.Name)
	f.detail("MAC", a.MAC)
	f.detail("IP", a.IP)
	f.detail("Pong", f.pong(a.Pong, a.CanSleep))
	f.detail("Ping period", strconv.Itoa(a.PingPeriod))
	f.detail("UI class", a.UIClassName)
	f.detail("Heap", strconv.Itoa(int(a.Heap)))
	f.detail("Custom", custom(a.Custom))
	f.detail("To rename", strconv.FormatBool(a.ToRename))
	f.detail("Registered", a.RegisteredAt.Format(time.RFC3339))
	f.detail("Updated", a.UpdatedAt.Format(time.RFC3339))
	if a.LastPingAt != nil {
		f.detail("Last ping", a.LastPingAt.Format(time.RFC3339))
	}
}

// PrintPingReport summarises a ping sweep.
func (f *Formatter) PrintPingReport(r *agent.PingReport) {
	f.header.Fprintln(f.Writer, "Ping sweep")
	f.detail("Probed", strconv.Itoa(len(r.Probed)))
	f.detail("Skipped", strconv.Itoa(len(r.Skipped)))
	f.list("Failed", r.Failed)
}

// PrintResetReport summarises a reset sweep.
func (f *Formatter) PrintResetReport(r *agent.ResetReport) {
	f.header.Fprintln(f.Writer, "Reset sweep")
	f.detail("Reset", strconv.Itoa(len(r.Reset)))
	f.list("Failed", r.Failed)
}

// PrintHealth renders master status and metrics.
func (f *Formatter) PrintHealth(h *Health, m *Metrics) {
	f.header.Fprintln(f.Writer, "iotinator master")
	status := f.success.Sprint(h.Status)
	if h.Status != "ok" {
		status = f.failure.Sprint(h.Status)
	}
	f.detail("Status", status)
	f.detail("Version", h.Version)
	f.detail("Agents", strconv.Itoa(h.Agents))
	if m == nil {
		return
	}
	f.detail("Uptime", (time.Duration(m.UptimeSeconds) * time.Second).String())
	switch {
	case !m.MQTT.Enabled:
		f.detail("MQTT", f.secondary.Sprint("disabled"))
	case m.MQTT.Connected:
		f.detail("MQTT", f.success.Sprint("connected"))
	default:
		f.detail("MQTT", f.failure.Sprint("disconnected"))
	}
	f.detail("Answering", fmt.Sprintf("%d/%d", m.Agents.Pong, m.Agents.Total))
	f.detail("Sleeping", strconv.Itoa(m.Agents.Sleeping))
	f.detail("To rename", strconv.Itoa(m.Agents.ToRename))
	f.detail("List size", fmt.Sprintf("%d bytes (parse %d)", m.Agents.ListSizeHint, m.Agents.ParseTreeSize))
}

// PrintError writes err in the failure style.
func (f *Formatter) PrintError(err error) {
	f.failure.Fprintf(f.Writer, "Error: %v\n", err)
}

func (f *Formatter) table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(f.Writer)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Alignment.Global = tw.AlignLeft
		cfg.Row.Alignment.Global = tw.AlignLeft
		cfg.Header.Padding.Global = tw.Padding{Left: " ", Right: " "}
		cfg.Row.Padding.Global = tw.Padding{Left: " ", Right: " "}
	})

	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func (f *Formatter) detail(label, value string) {
	f.label.Fprintf(f.Writer, "%-12s ", label+":")
	fmt.Fprintln(f.Writer, value)
}

func (f *Formatter) list(label string, macs []string) {
	if len(macs) == 0 {
		f.detail(label, f.success.Sprint("none"))
		return
	}
	f.detail(label, f.failure.Sprint(strings.Join(macs, ", ")))
}

// pong renders liveness. Sleeping agents are never probed.
func (f *Formatter) pong(pong, canSleep bool) string {
	switch {
	case canSleep:
		return f.secondary.Sprint("asleep")
	case pong:
		return f.success.Sprint("yes")
	default:
		return f.failure.Sprint("no")
	}
}

func custom(c *string) string {
	if c == nil {
		return "-"
	}
	return *c
}
