// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"sync"

	"tuner/internal/analysis"
	"tuner/internal/transport"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	inTuneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	offTuneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8A33D"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D"))
)

var quitKeys = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))

// Meter is a Sink that feeds detections to the full-screen tuning meter.
// Send never blocks; when the display falls behind, detections are dropped.
type Meter struct {
	updates chan analysis.Detection

	mu     sync.Mutex
	closed bool
}

// NewMeter returns a meter with room for a few pending detections.
func NewMeter() *Meter {
	return &Meter{updates: make(chan analysis.Detection, 8)}
}

func (m *Meter) Send(d analysis.Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return transport.ErrClosed
	}
	select {
	case m.updates <- d:
	default:
	}
	return nil
}

// Close ends the update stream; a running meter program quits once it has
// drained the pending detections.
func (m *Meter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.updates)
	}
	return nil
}

// Model returns the Bubble Tea model reading from this meter. source names
// the capture device; onQuit runs when the user quits from the keyboard.
func (m *Meter) Model(source string, onQuit func()) MeterModel {
	return MeterModel{
		updates: m.updates,
		source:  source,
		onQuit:  onQuit,
	}
}

// Run shows the meter on the alternate screen until the update stream is
// closed or the user quits.
func (m *Meter) Run(source string, onQuit func()) error {
	p := tea.NewProgram(m.Model(source, onQuit), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

var _ transport.Sink = (*Meter)(nil)

type detectionMsg analysis.Detection

type streamClosedMsg struct{}

// waitForDetection blocks on the update channel for the next detection.
func waitForDetection(updates <-chan analysis.Detection) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return detectionMsg(d)
	}
}

// MeterModel is the Bubble Tea model of the tuning meter.
type MeterModel struct {
	updates <-chan analysis.Detection
	source  string
	onQuit  func()

	last     analysis.Detection
	frames   int
	quitting bool
}

func (m MeterModel) Init() tea.Cmd {
	return waitForDetection(m.updates)
}

func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case detectionMsg:
		m.last = analysis.Detection(msg)
		m.frames++
		return m, waitForDetection(m.updates)

	case streamClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

// Last returns the most recent detection and whether one has arrived.
func (m MeterModel) Last() (analysis.Detection, bool) {
	return m.last, m.frames > 0
}

func (m MeterModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(Header))
	sb.WriteString("\n")

	if m.frames == 0 {
		if m.source != "" {
			sb.WriteString(mutedStyle.Render("Opening " + m.source))
			sb.WriteString("\n")
		}
		sb.WriteString(mutedStyle.Render("Waiting for the first block..."))
		sb.WriteString("\n")
		return sb.String()
	}

	body := RenderBody(m.last)
	switch {
	case !m.last.Found:
		body = mutedStyle.Render(body)
	case m.last.InTune():
		body = inTuneStyle.Render(body)
	default:
		body = offTuneStyle.Render(body)
	}
	sb.WriteString(body)
	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render("q: Quit"))
	return sb.String()
}
