// Package led contains the pixel buffer types shared by the renderer and the
// strip writers.
package led

import (
	"encoding"
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
	"unsafe"
)

// RGBColor is a 24-bit color in R, G, B order.
type RGBColor [3]uint8

var (
	_ encoding.TextUnmarshaler = (*RGBColor)(nil)
	_ encoding.TextMarshaler   = (*RGBColor)(nil)
)

// RGB returns a new RGBColor.
func RGB(r, g, b uint8) RGBColor {
	return RGBColor{r, g, b}
}

// Shift returns the color with each channel right-shifted by n bits.
func (c RGBColor) Shift(n uint) RGBColor {
	return RGBColor{c[0] >> n, c[1] >> n, c[2] >> n}
}

// RGBA converts the color into an opaque color.RGBA.
func (c RGBColor) RGBA() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xFF}
}

// String returns the color as "#rrggbb".
func (c RGBColor) String() string {
	return "#" + hex.EncodeToString(c[:])
}

// UnmarshalText parses a color in the "#rrggbb" or "rrggbb" form.
func (c *RGBColor) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "#")
	if len(s) != 6 {
		return fmt.Errorf("invalid color %q: expected 6 hex digits", text)
	}

	var v RGBColor
	if _, err := hex.Decode(v[:], []byte(s)); err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}

	*c = v
	return nil
}

func (c RGBColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// LEDs describes a strip of LEDs. It is a preallocated slice of RGBColor.
type LEDs []RGBColor

// NewLEDs creates a new strip of LEDs. Colors are initialized to black
// (off).
func NewLEDs(numLEDs int) LEDs {
	return make(LEDs, numLEDs)
}

// AsPixels returns the LED strip as a slice of uint8 values. Each LED is
// represented by three values, one for each color channel. The returned slice
// aliases l.
func (l LEDs) AsPixels() []uint8 {
	if len(l) == 0 {
		return nil
	}
	return unsafe.Slice((*uint8)(unsafe.Pointer(&l[0])), 3*len(l))
}

// Fill sets every LED to c.
func (l LEDs) Fill(c RGBColor) {
	for i := range l {
		l[i] = c
	}
}

// AppendRGBA appends the strip as color.RGBA values to dst. It is the format
// taken by the ws2812 driver.
func (l LEDs) AppendRGBA(dst []color.RGBA) []color.RGBA {
	for _, c := range l {
		dst = append(dst, c.RGBA())
	}
	return dst
}

// Uniform reports whether every LED has the same color as the first one.
func (l LEDs) Uniform() bool {
	for _, c := range l {
		if c != l[0] {
			return false
		}
	}
	return true
}
