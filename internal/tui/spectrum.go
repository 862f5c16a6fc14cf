// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"specviz/internal/analyzer"
	"specviz/internal/transport"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Nine levels per cell, blank to full block.
var barChars = []rune(" ▁▂▃▄▅▆▇█")

var (
	specLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	specMidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	specHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	axisStyle     = lipgloss.NewStyle().Faint(true)
)

var pauseKeys = key.NewBinding(key.WithKeys("p", " "))

// FrameSource hands out the most recent snapshot. It must not advance the
// analysis; poller.Poller satisfies it.
type FrameSource interface {
	Latest() transport.Frame
}

type frameTickMsg time.Time

// SpectrumModel draws the latest snapshot as vertical bars, refreshed at the
// polling interval.
type SpectrumModel struct {
	source   FrameSource
	interval time.Duration
	subtitle string

	frame  transport.Frame
	paused bool
	width  int
	height int
}

// NewSpectrumModel creates a spectrum view over source. subtitle is shown
// next to the title, e.g. the capture device name.
func NewSpectrumModel(source FrameSource, interval time.Duration, subtitle string) SpectrumModel {
	return SpectrumModel{
		source:   source,
		interval: interval,
		subtitle: subtitle,
		width:    80,
		height:   24,
	}
}

func (m SpectrumModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// Init starts the refresh ticker.
func (m SpectrumModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles resize, key and tick messages.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, quitKeys):
			return m, tea.Quit
		case key.Matches(msg, pauseKeys):
			m.paused = !m.paused
		}

	case frameTickMsg:
		if !m.paused {
			m.frame = m.source.Latest()
		}
		return m, m.tick()
	}
	return m, nil
}

// View renders the title, the bars, a frequency axis and a status line.
func (m SpectrumModel) View() string {
	title := titleStyle.Render("specviz")
	if m.subtitle != "" {
		title += " " + infoStyle.Render(m.subtitle)
	}

	// title, blank, axis, status, help
	barHeight := max(m.height-6, 1)
	rows := RenderBars(m.frame.Readings, m.width, barHeight)

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for i, row := range rows {
		sb.WriteString(rowStyle(i, len(rows)).Render(row))
		sb.WriteString("\n")
	}
	sb.WriteString(axisStyle.Render(renderAxis(m.frame.Readings, m.width)))
	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render(m.status()))
	sb.WriteString("\n")
	sb.WriteString(axisStyle.Render("p: Pause • q: Quit"))
	return sb.String()
}

func (m SpectrumModel) status() string {
	if len(m.frame.Readings) == 0 {
		return "Waiting for audio..."
	}
	peak := m.frame.Readings[m.frame.Peak()]
	s := fmt.Sprintf("frame %d  peak %s-%s  %.2f",
		m.frame.Seq, formatHz(peak.FreqLo), formatHz(peak.FreqHi), peak.Magnitude)
	if m.paused {
		s += "  [paused]"
	}
	return s
}

// rowStyle colours the top of the bars hot and the bottom cool.
func rowStyle(row, rows int) lipgloss.Style {
	fromTop := float64(row) / float64(max(rows, 1))
	switch {
	case fromTop < 0.25:
		return specHighStyle
	case fromTop < 0.5:
		return specMidStyle
	default:
		return specLowStyle
	}
}

// RenderBars draws readings as height rows of block characters across width
// columns, top row first. When there are more bands than columns adjacent
// bands are merged by taking their maximum.
func RenderBars(readings []analyzer.FrequencyReading, width, height int) []string {
	height = max(height, 1)
	width = max(width, 1)
	levels := fitLevels(readings, width)
	cols := len(levels)
	if cols == 0 {
		rows := make([]string, height)
		for i := range rows {
			rows[i] = strings.Repeat(" ", width)
		}
		return rows
	}

	colWidth := max(width/cols, 1)
	gap := 1
	if colWidth <= 1 {
		gap = 0
	}

	rows := make([]string, height)
	for row := range height {
		var line strings.Builder
		for b, v := range levels {
			if b > 0 && gap > 0 {
				line.WriteByte(' ')
			}
			level := v * float64(height)
			rowFromBottom := float64(height - 1 - row)
			charIdx := 0
			if level >= rowFromBottom+1 {
				charIdx = len(barChars) - 1
			} else if level > rowFromBottom {
				frac := level - rowFromBottom
				charIdx = int(frac * float64(len(barChars)-1))
			}
			ch := barChars[charIdx]
			for range colWidth - gap {
				line.WriteRune(ch)
			}
		}
		rows[row] = line.String()
	}
	return rows
}

// fitLevels clamps magnitudes to [0,1] and max-pools them down to at most
// width values.
func fitLevels(readings []analyzer.FrequencyReading, width int) []float64 {
	n := len(readings)
	cols := min(n, width)
	levels := make([]float64, cols)
	for i, r := range readings {
		c := i * cols / n
		v := min(max(r.Magnitude, 0), 1)
		if v > levels[c] {
			levels[c] = v
		}
	}
	return levels
}

// renderAxis labels the lowest, middle and highest band edges.
func renderAxis(readings []analyzer.FrequencyReading, width int) string {
	if len(readings) == 0 {
		return ""
	}
	lo := formatHz(readings[0].FreqLo)
	mid := formatHz(readings[len(readings)/2].FreqLo)
	hi := formatHz(readings[len(readings)-1].FreqHi)

	free := width - len(lo) - len(mid) - len(hi)
	if free < 2 {
		return lo + " " + hi
	}
	left := free / 2
	return lo + strings.Repeat(" ", left) + mid + strings.Repeat(" ", free-left) + hi
}

func formatHz(f float64) string {
	if f >= 1000 {
		return fmt.Sprintf("%.1fk", f/1000)
	}
	return fmt.Sprintf("%.0f", f)
}

// StartSpectrumUI runs the spectrum view until the user quits.
func StartSpectrumUI(source FrameSource, interval time.Duration, subtitle string) error {
	p := tea.NewProgram(
		NewSpectrumModel(source, interval, subtitle),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
