// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ledvu/internal/engine"
	"ledvu/internal/led"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const liveRefresh = 33 * time.Millisecond

var (
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#303030"))
	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	dimStyle = lipgloss.NewStyle().Faint(true)
)

// LiveView renders the strip and the meter state while the engine runs. The
// engine feeds it through Sink and, as a diagnostics transport, through Send.
type LiveView struct {
	slot       led.Slot
	length     int
	brightness uint8

	mu   sync.Mutex
	diag engine.Diagnostics
}

// NewLiveView returns a view for a strip of length LEDs.
func NewLiveView(length int, brightness uint8) *LiveView {
	return &LiveView{length: length, brightness: brightness}
}

// Sink returns the led.Sink the engine should draw into.
func (v *LiveView) Sink() led.Sink { return &v.slot }

// Send keeps the latest diagnostics record.
func (v *LiveView) Send(data any) error {
	d, ok := data.(engine.Diagnostics)
	if !ok {
		return nil
	}
	v.mu.Lock()
	v.diag = d
	v.mu.Unlock()
	return nil
}

func (v *LiveView) Close() error { return nil }

func (v *LiveView) diagnostics() engine.Diagnostics {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.diag
}

// Run shows the view until the user quits or ctx is done. Quitting calls
// stop so the engine shuts down with the view.
func (v *LiveView) Run(ctx context.Context, stop context.CancelFunc) error {
	p := tea.NewProgram(newLiveModel(v), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	stop()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("live view failed: %w", err)
	}
	return nil
}

type liveTickMsg time.Time

func liveTick() tea.Cmd {
	return tea.Tick(liveRefresh, func(t time.Time) tea.Msg {
		return liveTickMsg(t)
	})
}

type liveModel struct {
	view   *LiveView
	frame  led.Frame
	strip  []led.Color
	diag   engine.Diagnostics
	frames uint64
	width  int
	styles map[led.Color]lipgloss.Style
}

func newLiveModel(v *LiveView) liveModel {
	return liveModel{
		view:   v,
		strip:  make([]led.Color, v.length),
		styles: make(map[led.Color]lipgloss.Style),
	}
}

func (m liveModel) Init() tea.Cmd { return liveTick() }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case liveTickMsg:
		m.frame, m.frames = m.view.slot.Load(m.frame)
		m.strip = m.frame.Render(m.strip, m.view.length)
		m.diag = m.view.diagnostics()
		return m, liveTick()
	}
	return m, nil
}

func (m liveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ledvu"))
	b.WriteString("\n\n")

	for _, c := range m.strip {
		if c == led.Off {
			b.WriteString(offStyle.Render("●"))
			continue
		}
		s, ok := m.styles[c]
		if !ok {
			s = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Scale(m.view.brightness).Hex()))
			m.styles[c] = s
		}
		b.WriteString(s.Render("●"))
	}
	b.WriteString("\n\n")

	d := m.diag
	b.WriteString(volumeBar(d.SmoothVolume, d.MaxRange, m.barWidth()))
	fmt.Fprintf(&b, "\n\nvolume %7.1f  smooth %7.1f  peak %7.1f\n", d.Volume, d.SmoothVolume, d.MaxVolume)
	fmt.Fprintf(&b, "gain %6.3f  baseline %8.1f  lit %2d/%d\n", d.Gain, d.Baseline, d.Lit, m.view.length)
	b.WriteString(dimStyle.Render(fmt.Sprintf("frames %d • q: Quit", m.frames)))
	return b.String()
}

func (m liveModel) barWidth() int {
	if m.width > 10 {
		return m.width - 2
	}
	return m.view.length
}

// volumeBar draws v against full as a horizontal bar of width cells.
func volumeBar(v, full float64, width int) string {
	filled := 0
	if full > 0 && v > 0 {
		filled = min(int(v/full*float64(width)+0.5), width)
	}
	return barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}
