// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// typeItem is one registered message type in the type list
type typeItem struct {
	id   uint8
	name string
	size int
}

// Implement list.Item interface
func (t typeItem) Title() string       { return t.name }
func (t typeItem) Description() string { return fmt.Sprintf("id %d, %d bytes", t.id, t.size) }
func (t typeItem) FilterValue() string { return t.name }

// Focus targets: focusTypeList, then one per field input, then the button
const focusTypeList = 0

// composeModel is the Bubble Tea model for the compose TUI
type composeModel struct {
	registry *serialfactory.Registry
	out      io.Writer
	connInfo string

	typeList list.Model
	selected *typeItem
	fields   []fieldInfo
	inputs   []textinput.Model
	focus    int

	stats         *serialfactory.Statistics
	sent          uint64
	errorLog      []errorLogEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
	connLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type composeFramesMsg frameBatch

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialComposeModel(reg *serialfactory.Registry, out io.Writer, connInfo string) composeModel {
	items := make([]list.Item, 0, reg.Len())
	for id := 0; id < reg.Len(); id++ {
		size, _ := reg.Size(uint8(id))
		items = append(items, typeItem{id: uint8(id), name: reg.Name(uint8(id)), size: size})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	typeList := list.New(items, delegate, 30, 12)
	typeList.Title = "Message Types"
	typeList.SetShowStatusBar(false)
	typeList.SetShowHelp(false)
	typeList.SetFilteringEnabled(false)

	return composeModel{
		registry:      reg,
		out:           out,
		connInfo:      connInfo,
		typeList:      typeList,
		focus:         focusTypeList,
		stats:         serialfactory.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m composeModel) Init() tea.Cmd {
	return tickCmd()
}

func (m composeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.typeList.SetSize(30, max(m.height-14, 6))

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case connErrMsg:
		m.connLost = true
		m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)

	case composeFramesMsg:
		m.processFrames(frameBatch(msg))
	}

	return m, nil
}

// buttonFocus is the focus index of the Send button
func (m *composeModel) buttonFocus() int {
	return len(m.inputs) + 1
}

func (m *composeModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focus == focusTypeList {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "enter":
		if m.focus == focusTypeList {
			m.selectType()
			return m, nil
		}
		return m.sendComposed()
	}

	var cmd tea.Cmd
	if m.focus == focusTypeList {
		m.typeList, cmd = m.typeList.Update(msg)
	} else if i := m.focus - 1; i >= 0 && i < len(m.inputs) {
		m.inputs[i], cmd = m.inputs[i].Update(msg)
	}
	return m, cmd
}

func (m *composeModel) cycleFocus(delta int) *composeModel {
	if m.selected == nil {
		m.focus = focusTypeList
		return m
	}

	n := m.buttonFocus() + 1
	m.focus = (m.focus + delta + n) % n

	for i := range m.inputs {
		if i == m.focus-1 {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m
}

// selectType builds the field form for the highlighted type
func (m *composeModel) selectType() {
	item, ok := m.typeList.SelectedItem().(typeItem)
	if !ok {
		return
	}
	proto, err := m.registry.New(item.id)
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return
	}

	m.selected = &item
	m.fields = messageFields(proto)
	m.inputs = make([]textinput.Model, len(m.fields))
	for i, f := range m.fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholderFor(f)
		ti.CharLimit = 64
		ti.Width = 24
		m.inputs[i] = ti
	}
	m.focus = focusTypeList
	m.cycleFocus(1)
}

func placeholderFor(f fieldInfo) string {
	var p string
	switch f.Kind {
	case reflect.Bool:
		p = "false"
	case reflect.Float32, reflect.Float64:
		p = "0.0"
	default:
		p = "0"
	}
	if f.Len > 0 {
		return fmt.Sprintf("%s,... (%d values)", p, f.Len)
	}
	return p
}

// sendComposed encodes the form and writes the frame
func (m *composeModel) sendComposed() (tea.Model, tea.Cmd) {
	if m.selected == nil {
		return m, nil
	}
	if m.connLost {
		m.addLogEntry("Cannot send: connection lost", true)
		return m, nil
	}

	proto, err := m.registry.New(m.selected.id)
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}

	var assignments []string
	for i, f := range m.fields {
		if v := strings.TrimSpace(m.inputs[i].Value()); v != "" {
			assignments = append(assignments, f.Path+"="+v)
		}
	}
	value, err := setFields(proto, assignments)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("%s: %v", m.selected.name, err), true)
		return m, nil
	}

	frame, err := m.registry.EncodeFrame(value)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("%s: %v", m.selected.name, err), true)
		return m, nil
	}
	if err := writeFrame(m.out, frame); err != nil {
		m.addLogEntry(fmt.Sprintf("Send failed: %v", err), true)
		return m, nil
	}

	m.sent++
	m.addLogEntry(fmt.Sprintf("Sent %s: %s", m.selected.name, serialfactory.FormatHex(frame)), false)
	return m, nil
}

// processFrames logs received frames
func (m *composeModel) processFrames(batch frameBatch) {
	m.stats.Observe(batch.delta)
	for _, msg := range batch.messages {
		errs := m.registry.Validate(msg)
		m.stats.Update(msg, errs)

		name := m.registry.Name(msg.ID())
		if len(errs) > 0 {
			m.addLogEntry(fmt.Sprintf("Received %s: %s", name, errs[0].Message), true)
			continue
		}
		v, _ := m.registry.Decode(msg)
		fields := strings.Join(strings.Fields(serialfactory.FormatValue(v)), " ")
		m.addLogEntry(fmt.Sprintf("Received %s: %s", name, fields), false)
	}
}

func (m *composeModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m composeModel) View() string {
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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Padding(0, 2)

	focusedButtonStyle := buttonStyle.
		Background(lipgloss.Color("10"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("SERIALFACTORY COMPOSE"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connLost {
		connStatus = warningStyle.Render("CONNECTION LOST")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Tab=switch Enter=select/send q=quit", connStatus)))
	s.WriteString("\n\n")

	// Left: type list
	listBox := boxStyle
	if m.focus == focusTypeList {
		listBox = focusedBoxStyle
	}
	left := listBox.Render(m.typeList.View())

	// Right: field form
	var form strings.Builder
	if m.selected == nil {
		form.WriteString(headerStyle.Render("Select a message type and press Enter"))
	} else {
		form.WriteString(labelStyle.Render(fmt.Sprintf("%s (id %d, %d bytes)", m.selected.name, m.selected.id, m.selected.size)))
		form.WriteString("\n\n")
		if len(m.fields) == 0 {
			form.WriteString(headerStyle.Render("(empty payload)"))
			form.WriteString("\n")
		}
		for i, f := range m.fields {
			label := fmt.Sprintf("%-12s", f.Path)
			if m.focus == i+1 {
				form.WriteString(valueStyle.Render("> " + label))
			} else {
				form.WriteString(headerStyle.Render("  " + label))
			}
			form.WriteString(" ")
			form.WriteString(m.inputs[i].View())
			form.WriteString("\n")
		}
		form.WriteString("\n")
		if m.focus == m.buttonFocus() {
			form.WriteString(focusedButtonStyle.Render("Send"))
		} else {
			form.WriteString(buttonStyle.Render("Send"))
		}
	}
	formBox := boxStyle
	if m.focus != focusTypeList && m.selected != nil {
		formBox = focusedBoxStyle
	}
	right := formBox.Width(max(m.width-38, 30)).Render(form.String())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	s.WriteString("\n")

	// Statistics bar
	m.stats.CalculateRates()
	s.WriteString(boxStyle.Render(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", m.sent)),
		labelStyle.Render("Received:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.ValidFrames)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ErrorCount())),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
	)))
	s.WriteString("\n")

	// Event log
	logHeight := m.height - 22
	if logHeight < 3 {
		logHeight = 3
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
		timestamp := entry.timestamp.Format("15:04:05.000")
		if entry.isError {
			fmt.Fprintf(&events, "%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&events, "%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message))
		}
	}
	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(events.String()))

	return s.String()
}
