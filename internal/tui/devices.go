// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"ledvu/internal/audio"

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

var (
	keyQuit   = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp     = key.NewBinding(key.WithKeys("up", "k"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"))
	keyEnter  = key.NewBinding(key.WithKeys("enter"))
	keyBack   = key.NewBinding(key.WithKeys("esc"))
	rateTable = []float64{16000, 22050, 44100, 48000, 88200, 96000}
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the outcome of the device picker.
type Selection struct {
	DeviceID   int
	DeviceName string
	SampleRate float64
	Cancelled  bool
}

// DeviceListModel lets the user pick an input device and a sample rate.
type DeviceListModel struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	sampleRates     []float64
	sampleRateIndex int

	selection Selection
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// NewDeviceListModel creates a picker listing the devices fetch returns.
func NewDeviceListModel(fetch func() ([]audio.Device, error)) DeviceListModel {
	return DeviceListModel{
		fetch:        fetch,
		activeScreen: ListScreen,
		selection:    Selection{Cancelled: true},
	}
}

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
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}
		if m.err != nil {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, keyEnter):
				if len(m.devices) > 0 {
					m.openConfig()
				}
			}
		case ConfigScreen:
			switch {
			case key.Matches(msg, keyBack):
				m.activeScreen = ListScreen
			case key.Matches(msg, keyUp):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
				}
			case key.Matches(msg, keyDown):
				if m.sampleRateIndex < len(m.sampleRates)-1 {
					m.sampleRateIndex++
				}
			case key.Matches(msg, keyEnter):
				device := m.devices[m.selectedIndex]
				m.selection = Selection{
					DeviceID:   device.ID,
					DeviceName: device.Name,
					SampleRate: m.sampleRates[m.sampleRateIndex],
				}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// openConfig offers the common rates plus the device default, preselecting
// the default.
func (m *DeviceListModel) openConfig() {
	m.activeScreen = ConfigScreen
	def := m.devices[m.selectedIndex].DefaultSampleRate

	m.sampleRates = append(m.sampleRates[:0], rateTable...)
	m.sampleRateIndex = -1
	for i, rate := range m.sampleRates {
		if rate == def {
			m.sampleRateIndex = i
			break
		}
	}
	if m.sampleRateIndex < 0 {
		m.sampleRates = append(m.sampleRates, def)
		m.sampleRateIndex = len(m.sampleRates) - 1
	}
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

// Selection returns what the user picked; Cancelled is set if they quit.
func (m DeviceListModel) Selection() Selection { return m.selection }

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
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Start • Esc: Back • q: Quit")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, device.Kind())
		if device.HostAPI != "" {
			info += fmt.Sprintf("    Host API: %s\n", device.HostAPI)
		}
		info += fmt.Sprintf("    Input channels: %d\n", device.MaxInputChannels)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Name)
	sb.WriteString("Sample Rate:\n")
	for i, rate := range m.sampleRates {
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

// PickDevice runs the picker over the host's input devices. PortAudio must
// be initialized.
func PickDevice() (Selection, error) {
	p := tea.NewProgram(NewDeviceListModel(audio.InputDevices), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{Cancelled: true}, fmt.Errorf("device picker failed: %w", err)
	}
	return final.(DeviceListModel).Selection(), nil
}
