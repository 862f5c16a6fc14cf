package tui

import (
	"fmt"
	"strings"

	"specviz/internal/audio"
	"specviz/internal/config"

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

// devicesFunc is swapped out in tests.
var devicesFunc = audio.Devices

var (
	quitKeys  = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	upKeys    = key.NewBinding(key.WithKeys("up", "k"))
	downKeys  = key.NewBinding(key.WithKeys("down", "j"))
	enterKeys = key.NewBinding(key.WithKeys("enter"))
	backKeys  = key.NewBinding(key.WithKeys("esc"))
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	DetailScreen
)

// DeviceListModel represents the Bubble Tea model for listing capture devices
type DeviceListModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// Init initializes the Bubble Tea model
func (m DeviceListModel) Init() tea.Cmd {
	return fetchDevices
}

// fetchDevices gets the available capture devices
func fetchDevices() tea.Msg {
	devices, err := devicesFunc()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

// Update handles input and updates the model
func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

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
		if m.selectedIndex >= len(m.devices) {
			m.selectedIndex = 0
		}
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
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
				if len(m.devices) > 0 {
					m.activeScreen = DetailScreen
					m.refresh()
				}
			}
		case DetailScreen:
			if key.Matches(msg, backKeys) {
				m.activeScreen = ListScreen
				m.refresh()
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh re-renders the active screen into the viewport.
func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == DetailScreen && len(m.devices) > 0 {
		m.viewport.SetContent(m.renderDeviceDetail())
		return
	}
	m.viewport.SetContent(m.renderDevices())
}

// View renders the UI
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Capture Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Details • q: Quit")
	} else {
		title = titleStyle.Render("Device Details")
		help = infoStyle.Render("Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// renderDevices formats the device list, grouped by backend.
func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	backend := ""
	for i, device := range m.devices {
		if device.Backend != backend {
			backend = device.Backend
			sb.WriteString(infoStyle.Render(audio.BackendTitle(backend)))
			sb.WriteString("\n\n")
		}

		marker := " "
		if device.IsDefault {
			marker = "*"
		}
		deviceInfo := fmt.Sprintf("%s [%d] %s (%s)\n",
			marker, device.ID, device.Name, deviceType(device))
		if device.DefaultSampleRate > 0 {
			deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		}

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderDeviceDetail formats every known property of the selected device and
// the flags that select it.
func (m DeviceListModel) renderDeviceDetail() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	sb.WriteString(highlightStyle.Render(device.Name))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "  Backend:          %s\n", device.Backend)
	fmt.Fprintf(&sb, "  Device ID:        %d\n", device.ID)
	fmt.Fprintf(&sb, "  System default:   %t\n", device.IsDefault)
	fmt.Fprintf(&sb, "  Input channels:   %d\n", device.MaxInputChannels)
	fmt.Fprintf(&sb, "  Output channels:  %d\n", device.MaxOutputChannels)
	if device.DefaultSampleRate > 0 {
		fmt.Fprintf(&sb, "  Sample rate:      %.0f Hz\n", device.DefaultSampleRate)
	}
	if device.LowLatencyMs > 0 || device.HighLatencyMs > 0 {
		fmt.Fprintf(&sb, "  Latency:          %.1f / %.1f ms (low / high)\n",
			device.LowLatencyMs, device.HighLatencyMs)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Use with: --backend %s --device %d\n", device.Backend, device.ID)

	return sb.String()
}

func deviceType(d audio.Device) string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	case d.Backend == config.BackendLoopback:
		return "Playback"
	default:
		return "Unknown"
	}
}

// NewDeviceListModel creates a new device list model
func NewDeviceListModel() DeviceListModel {
	return DeviceListModel{
		selectedIndex: 0,
		activeScreen:  ListScreen,
	}
}

// StartDeviceListUI launches the Bubble Tea TUI for listing devices
func StartDeviceListUI() error {
	p := tea.NewProgram(
		NewDeviceListModel(),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
