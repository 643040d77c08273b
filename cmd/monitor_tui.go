// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Optiline Instruments

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/internal/tap"
	"github.com/optiline/ljscope/pkg/ljv7"
)

// Frame log entry
type frameLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Messages
type tickMsg time.Time
type frameMsg struct {
	event tap.Event
}
type streamErrMsg struct {
	origin capture.Origin
	err    error
}
type tapStoppedMsg struct {
	err error
}

const maxFrameLogEntries = 500

// TUI model
type monitorModel struct {
	listen     string
	sensor     string
	stats      *ljv7.Statistics
	frameLog   []frameLogEntry
	vp         viewport.Model
	follow     bool
	width      int
	height     int
	quitting   bool
	tapStopped bool
	tapErr     error
}

func newMonitorModel(listen, sensor string, stats *ljv7.Statistics) monitorModel {
	vp := viewport.New(80, 10)
	return monitorModel{
		listen: listen,
		sensor: sensor,
		stats:  stats,
		vp:     vp,
		follow: true,
		width:  80,
		height: 24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.vp.GotoBottom()
			}
		default:
			// Scrolling detaches from follow mode.
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tickMsg:
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case frameMsg:
		ev := msg.event
		m.stats.Update(ev.Record)
		line := fmt.Sprintf("[%s] %s %s, %d bytes",
			ev.Origin, ev.Record.Direction(), ev.Record.Body.Opcode,
			len(ev.Record.Frame.BodyBytes()))
		m.addFrameLog(line, ev.Record.HasAnomaly())
		for _, a := range ev.Record.Anomalies {
			m.addFrameLog("  anomaly: "+a.Error(), true)
		}

	case streamErrMsg:
		m.stats.RecordStreamError(msg.err)
		m.addFrameLog(fmt.Sprintf("STREAM DEAD (%s): %v", msg.origin, msg.err), true)

	case tapStoppedMsg:
		m.tapStopped = true
		m.tapErr = msg.err
	}

	return m, nil
}

func (m *monitorModel) addFrameLog(message string, isError bool) {
	m.frameLog = append(m.frameLog, frameLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.frameLog) > maxFrameLogEntries {
		m.frameLog = m.frameLog[len(m.frameLog)-maxFrameLogEntries:]
	}
	m.vp.SetContent(m.renderFrameLog())
	if m.follow {
		m.vp.GotoBottom()
	}
}

func (m *monitorModel) resizeViewport() {
	h := m.height - 14 // header + stats box + footer
	if h < 5 {
		h = 5
	}
	m.vp.Width = m.width - 4
	m.vp.Height = h
	m.vp.SetContent(m.renderFrameLog())
	if m.follow {
		m.vp.GotoBottom()
	}
}

var (
	monTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	monHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	monLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	monValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	monErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	monBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m monitorModel) renderFrameLog() string {
	if len(m.frameLog) == 0 {
		return monHeaderStyle.Render("  (no frames yet)")
	}
	var b strings.Builder
	for _, entry := range m.frameLog {
		ts := monHeaderStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			b.WriteString(fmt.Sprintf("%s %s\n", ts, monErrorStyle.Render(entry.message)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", ts, entry.message))
		}
	}
	return b.String()
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(monTitleStyle.Render("LJSCOPE - LIVE MONITOR"))
	s.WriteString("\n")
	followLabel := "following"
	if !m.follow {
		followLabel = "scrolling (press 'f' to follow)"
	}
	s.WriteString(monHeaderStyle.Render(fmt.Sprintf("Listen: %s -> Sensor: %s | Log: %s | Press 'q' to quit",
		m.listen, m.sensor, followLabel)))
	s.WriteString("\n\n")

	if m.tapStopped {
		if m.tapErr != nil {
			s.WriteString(monErrorStyle.Render(fmt.Sprintf("TAP STOPPED: %v", m.tapErr)))
		} else {
			s.WriteString(monHeaderStyle.Render("Tap stopped"))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	st := m.stats
	var errPercent float64
	if st.TotalFrames > 0 {
		errPercent = float64(st.Anomalies()) * 100.0 / float64(st.TotalFrames)
	}

	stats := strings.Builder{}
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		monLabelStyle.Render("Total:"), monValueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		monLabelStyle.Render("Requests:"), monValueStyle.Render(fmt.Sprintf("%d", st.Requests)),
		monLabelStyle.Render("Replies:"), monValueStyle.Render(fmt.Sprintf("%d", st.Replies)),
		monLabelStyle.Render("Anomalies:"), func() string {
			text := fmt.Sprintf("%d (%.1f%%)", st.Anomalies(), errPercent)
			if st.Anomalies() > 0 {
				return monErrorStyle.Render(text)
			}
			return monValueStyle.Render(text)
		}(),
	))
	if st.ProfilesDecoded > 0 {
		stats.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			monLabelStyle.Render("Profiles:"), monValueStyle.Render(fmt.Sprintf("%d", st.ProfilesDecoded)),
			monLabelStyle.Render("Points:"), monValueStyle.Render(fmt.Sprintf("%d", st.PointsDecoded)),
		))
	}
	stats.WriteString(fmt.Sprintf("%s %s   %s %s",
		monLabelStyle.Render("Frame Rate:"), monValueStyle.Render(fmt.Sprintf("%.1f fr/s", st.FrameRate)),
		monLabelStyle.Render("Error Rate:"), func() string {
			text := fmt.Sprintf("%.1f err/s", st.ErrorRate)
			if st.ErrorRate > 0 {
				return monErrorStyle.Render(text)
			}
			return monValueStyle.Render(text)
		}(),
	))

	s.WriteString(monBoxStyle.Render(stats.String()))
	s.WriteString("\n\n")

	s.WriteString(monLabelStyle.Render("Recent Frames:"))
	s.WriteString("\n")
	s.WriteString(monBoxStyle.Width(m.width - 4).Render(m.vp.View()))

	return s.String()
}
