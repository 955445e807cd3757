// SPDX-License-Identifier: MIT
package led

import "fmt"

// Color is a packed 0xRRGGBB value.
type Color uint32

// Strip palette.
const (
	Off    Color = 0x000000
	Green  Color = 0x00FF00
	Yellow Color = 0xFFFF00
	Red    Color = 0xFF0000
)

// RGB unpacks the channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Scale dims every channel by brightness/255.
func (c Color) Scale(brightness uint8) Color {
	if brightness == 255 {
		return c
	}
	r, g, b := c.RGB()
	scale := func(v uint8) Color { return Color(uint16(v) * uint16(brightness) / 255) }
	return scale(r)<<16 | scale(g)<<8 | scale(b)
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// Pixel is one lit LED.
type Pixel struct {
	Index int
	Color Color
}

// Frame is the set of lit LEDs for one refresh, in lighting order. LEDs not
// listed are off.
type Frame []Pixel

// Render expands f into a full strip of length colors, reusing dst when it
// is large enough. Pixels outside the strip are ignored.
func (f Frame) Render(dst []Color, length int) []Color {
	if cap(dst) < length {
		dst = make([]Color, length)
	}
	dst = dst[:length]
	for i := range dst {
		dst[i] = Off
	}
	for _, p := range f {
		if p.Index >= 0 && p.Index < length {
			dst[p.Index] = p.Color
		}
	}
	return dst
}
