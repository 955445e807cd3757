// SPDX-License-Identifier: MIT
package led

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Sink displays frames. Clear is called before every Show.
type Sink interface {
	Clear() error
	Show(Frame) error
}

// NullSink drops every frame.
type NullSink struct{}

func (NullSink) Clear() error     { return nil }
func (NullSink) Show(Frame) error { return nil }

// Slot is a single-frame handoff to a sink that renders on its own
// goroutine. A Show replaces whatever the reader has not picked up yet.
type Slot struct {
	mu  sync.Mutex
	buf Frame
	seq uint64
}

// Clear is a no-op: every Show replaces the whole strip.
func (s *Slot) Clear() error { return nil }

// Show copies f into the slot.
func (s *Slot) Show(f Frame) error {
	s.mu.Lock()
	s.buf = append(s.buf[:0], f...)
	s.seq++
	s.mu.Unlock()
	return nil
}

// Load copies the current frame into dst and returns it with the number of
// frames stored so far.
func (s *Slot) Load(dst Frame) (Frame, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(dst[:0], s.buf...), s.seq
}

const (
	litGlyph = "●"
	offGlyph = "·"
)

// TerminalSink draws the strip as one line of colored glyphs, redrawn in
// place with a carriage return.
type TerminalSink struct {
	out        io.Writer
	length     int
	brightness uint8

	strip  []Color
	styles map[Color]lipgloss.Style
	off    lipgloss.Style
	line   strings.Builder
}

// NewTerminalSink writes a strip of length LEDs to out.
func NewTerminalSink(out io.Writer, length int, brightness uint8) *TerminalSink {
	return &TerminalSink{
		out:        out,
		length:     length,
		brightness: brightness,
		strip:      make([]Color, length),
		styles:     make(map[Color]lipgloss.Style),
		off:        lipgloss.NewStyle().Faint(true),
	}
}

func (t *TerminalSink) Clear() error {
	for i := range t.strip {
		t.strip[i] = Off
	}
	return nil
}

func (t *TerminalSink) Show(f Frame) error {
	t.strip = f.Render(t.strip, t.length)
	t.line.Reset()
	t.line.WriteByte('\r')
	for _, c := range t.strip {
		if c == Off {
			t.line.WriteString(t.off.Render(offGlyph))
			continue
		}
		t.line.WriteString(t.style(c).Render(litGlyph))
	}
	_, err := io.WriteString(t.out, t.line.String())
	return err
}

func (t *TerminalSink) style(c Color) lipgloss.Style {
	s, ok := t.styles[c]
	if !ok {
		s = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Scale(t.brightness).Hex()))
		t.styles[c] = s
	}
	return s
}
