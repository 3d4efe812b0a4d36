// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// latestValue is the last decoded value of one message type
type latestValue struct {
	timestamp time.Time
	count     uint64
	fields    string
}

// TUI model
type monitorModel struct {
	registry      *serialfactory.Registry
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *serialfactory.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	synchronized  bool
	skipped       uint64
	latest        map[string]*latestValue
	width         int
	height        int
	quitting      bool
	connErr       error
}

// Messages
type tickMsg time.Time
type frameDataMsg monitorBatch
type syncMsg struct {
	skipped uint64
}
type connErrMsg struct {
	err error
}

func initialMonitorModel(reg *serialfactory.Registry, connInfo string, statsInterval int, showAll bool) monitorModel {
	return monitorModel{
		registry:      reg,
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         serialfactory.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		latest:        make(map[string]*latestValue),
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
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
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.skipped = msg.skipped
		if msg.skipped > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d bytes and frames", msg.skipped), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case connErrMsg:
		m.connErr = msg.err
		if errors.Is(msg.err, ErrConnectionClosed) {
			m.addLogEntry("Connection closed", true)
		} else {
			m.addLogEntry(fmt.Sprintf("Read error: %v", msg.err), true)
		}

	case frameDataMsg:
		m.processBatch(monitorBatch(msg))
	}

	return m, nil
}

// processBatch folds one reader batch into the model
func (m *monitorModel) processBatch(batch monitorBatch) {
	m.stats.Observe(batch.delta)
	if d := batch.delta; d.Dropped() > 0 {
		m.addLogEntry(fmt.Sprintf("Dropped frames: checksum=%d unknown_id=%d oversize=%d",
			d.ChecksumErrors, d.UnknownIDs, d.OversizeFrames), true)
	}

	for i, msg := range batch.messages {
		errs := batch.validationErrors[i]
		m.stats.Update(msg, errs)
		name := m.registry.Name(msg.ID())

		if len(errs) > 0 {
			for _, err := range errs {
				m.addLogEntry(fmt.Sprintf("%s: %s", name, err.Message), true)
			}
			continue
		}

		if v, err := m.registry.Decode(msg); err == nil {
			lv, ok := m.latest[name]
			if !ok {
				lv = &latestValue{}
				m.latest[name] = lv
			}
			lv.timestamp = msg.Timestamp()
			lv.count++
			lv.fields = strings.TrimRight(serialfactory.FormatValue(v), "\n")
		}
		if m.showAll {
			m.addLogEntry(fmt.Sprintf("%s (valid)", name), false)
		}
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	mode := "Errors only"
	if m.showAll {
		mode = "All frames"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("SERIALFACTORY - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'r' reset stats, 'q' quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	switch {
	case m.connErr != nil:
		s.WriteString(errorStyle.Render("✗ Connection lost"))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	default:
		s.WriteString(valueStyle.Render("✓ Synchronized"))
		if m.skipped > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d bytes and frames)", m.skipped)))
		}
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.ErrorCount()) * 100.0 / float64(m.stats.TotalFrames)
	}

	var stats strings.Builder
	fmt.Fprintf(&stats, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("Total:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ErrorCount(), errorPercent)),
	)
	if m.stats.ChecksumErrors > 0 || m.stats.DroppedFrames > 0 {
		fmt.Fprintf(&stats, "%s %s   %s %s\n",
			labelStyle.Render("Checksum Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ChecksumErrors)),
			labelStyle.Render("Dropped:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DroppedFrames)),
		)
	}
	if m.stats.LengthMismatch > 0 || m.stats.DecodeErrors > 0 || m.stats.NonFiniteValues > 0 {
		fmt.Fprintf(&stats, "%s %s (%s: %d, %s: %d)\n",
			labelStyle.Render("Anomalies:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.LengthMismatch+m.stats.DecodeErrors+m.stats.NonFiniteValues)),
			headerStyle.Render("length mismatches"), m.stats.LengthMismatch,
			headerStyle.Render("non-finite"), m.stats.NonFiniteValues,
		)
	}
	errRate := valueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	if m.stats.ErrorRate > 0 {
		errRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	}
	fmt.Fprintf(&stats, "%s %s   %s %s",
		labelStyle.Render("Frame Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		labelStyle.Render("Error Rate:"), errRate,
	)

	s.WriteString(boxStyle.Render(stats.String()))
	s.WriteString("\n\n")

	// Latest value per message type
	if len(m.latest) > 0 {
		s.WriteString(labelStyle.Render("Latest Values:"))
		s.WriteString("\n")

		names := make([]string, 0, len(m.latest))
		for name := range m.latest {
			names = append(names, name)
		}
		sort.Strings(names)

		var latest strings.Builder
		for i, name := range names {
			lv := m.latest[name]
			if i > 0 {
				latest.WriteString("\n")
			}
			fmt.Fprintf(&latest, "%s %s\n%s",
				labelStyle.Render(name),
				headerStyle.Render(fmt.Sprintf("x%d @ %s", lv.count, lv.timestamp.Format("15:04:05.000"))),
				valueStyle.Render(lv.fields),
			)
		}
		s.WriteString(boxStyle.Render(latest.String()))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 15 - 3*len(m.latest)
	if logHeight < 5 {
		logHeight = 5
	}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	var events strings.Builder
	if len(m.errorLog) == 0 {
		events.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.errorLog[startIdx:] {
		timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
		if entry.isError {
			fmt.Fprintf(&events, "%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&events, "%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message))
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(events.String()))

	return s.String()
}
