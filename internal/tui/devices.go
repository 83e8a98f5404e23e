// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"tuner/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

// Sample rates offered on the configuration screen. The analysis window is
// fixed in samples, so lower rates give finer frequency resolution.
var TunerSampleRates = []float64{4000, 8000, 11025, 16000, 22050, 44100, 48000}

var (
	listQuitKeys = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	upKeys       = key.NewBinding(key.WithKeys("up", "k"))
	downKeys     = key.NewBinding(key.WithKeys("down", "j"))
	enterKeys    = key.NewBinding(key.WithKeys("enter"))
	backKeys     = key.NewBinding(key.WithKeys("esc"))
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the input device and sample rate picked in the device list.
type Selection struct {
	DeviceID   int
	SampleRate float64
	Confirmed  bool
}

// DeviceListModel represents the Bubble Tea model for choosing an input device
type DeviceListModel struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType
	selection     Selection

	// Configuration options
	selectedSampleRate   float64
	availableSampleRates []float64
	sampleRateIndex      int
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// Init fetches the device list
func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		m.selectedIndex = m.firstInput()
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, listQuitKeys) {
			return m, tea.Quit
		}
		if m.err != nil {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, upKeys):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.refresh()
				}

			case key.Matches(msg, downKeys):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
					m.refresh()
				}

			case key.Matches(msg, enterKeys):
				// Output-only devices cannot feed the tuner.
				if len(m.devices) > 0 && m.devices[m.selectedIndex].MaxInputChannels > 0 {
					m.activeScreen = ConfigScreen
					m.availableSampleRates = TunerSampleRates
					m.selectedSampleRate = m.availableSampleRates[0]
					m.sampleRateIndex = 0
					for i, rate := range m.availableSampleRates {
						if rate == m.selection.SampleRate {
							m.sampleRateIndex = i
							m.selectedSampleRate = rate
							break
						}
					}
					m.refresh()
				}
			}

		case ConfigScreen:
			switch {
			case key.Matches(msg, backKeys):
				m.activeScreen = ListScreen
				m.refresh()

			case key.Matches(msg, upKeys):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
					m.selectedSampleRate = m.availableSampleRates[m.sampleRateIndex]
					m.refresh()
				}

			case key.Matches(msg, downKeys):
				if m.sampleRateIndex < len(m.availableSampleRates)-1 {
					m.sampleRateIndex++
					m.selectedSampleRate = m.availableSampleRates[m.sampleRateIndex]
					m.refresh()
				}

			case key.Matches(msg, enterKeys):
				m.selection = Selection{
					DeviceID:   m.devices[m.selectedIndex].ID,
					SampleRate: m.selectedSampleRate,
					Confirmed:  true,
				}
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Selection returns the confirmed device and sample rate. Confirmed is false
// when the user quit without choosing.
func (m DeviceListModel) Selection() Selection {
	return m.selection
}

// Screen returns the active screen.
func (m DeviceListModel) Screen() ScreenType {
	return m.activeScreen
}

// SelectedIndex returns the highlighted row of the device list.
func (m DeviceListModel) SelectedIndex() int {
	return m.selectedIndex
}

// SelectedSampleRate returns the highlighted rate of the configuration screen.
func (m DeviceListModel) SelectedSampleRate() float64 {
	return m.selectedSampleRate
}

// View renders the UI
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}

	var title, help string

	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Tuner Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Start • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
		return
	}
	m.viewport.SetContent(m.renderDevices())
}

// firstInput returns the default input device row, or the first row that
// can capture.
func (m DeviceListModel) firstInput() int {
	first := -1
	for i, device := range m.devices {
		if device.IsDefaultInput {
			return i
		}
		if first == -1 && device.MaxInputChannels > 0 {
			first = i
		}
	}
	return max(first, 0)
}

// renderDevices formats the device list
func (m DeviceListModel) renderDevices() string {
	var sb strings.Builder

	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	for i, device := range m.devices {
		deviceInfo := fmt.Sprintf("[%d] %s (%s)", device.ID, device.Name, device.Type())
		if device.IsDefaultInput {
			deviceInfo += " [default input]"
		}
		deviceInfo += "\n"
		deviceInfo += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n",
			device.DefaultSampleRate)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderDeviceConfig formats the sample rate choice for the selected device
func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	sb.WriteString(fmt.Sprintf("Configure Device: %s\n\n", device.Name))
	sb.WriteString("Sample Rate:\n")

	for i, rate := range m.availableSampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)

		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}

		sb.WriteString(line)
	}

	return sb.String()
}

// NewDeviceListModel creates a device list reading from fetch, with
// sampleRate preselected on the configuration screen.
func NewDeviceListModel(fetch func() ([]audio.Device, error), sampleRate float64) DeviceListModel {
	if fetch == nil {
		fetch = audio.GetDevices
	}
	return DeviceListModel{
		fetch:         fetch,
		selectedIndex: 0,
		activeScreen:  ListScreen,
		selection:     Selection{DeviceID: -1, SampleRate: sampleRate},
	}
}

// StartDeviceListUI launches the Bubble Tea device picker. The returned
// Selection is only Confirmed when the user pressed Enter on the
// configuration screen.
func StartDeviceListUI(sampleRate float64) (Selection, error) {
	p := tea.NewProgram(
		NewDeviceListModel(audio.GetDevices, sampleRate),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return Selection{}, err
	}
	model, ok := final.(DeviceListModel)
	if !ok {
		return Selection{}, fmt.Errorf("unexpected model type %T", final)
	}
	return model.Selection(), nil
}
