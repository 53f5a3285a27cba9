package strip

import (
	"fmt"

	"libdb.so/irglow/internal/led"
)

// MaxLuma is the brightest luma level.
const MaxLuma = 5

// IndexedColor is a palette index paired with a luma level. It is the color
// unit the state machine works with; it only becomes an RGB value once it is
// resolved against a Palette.
type IndexedColor struct {
	// Code is the palette index, or OffCode.
	Code uint8 `toml:"code"`
	// Luma is the brightness level in [0, MaxLuma].
	Luma uint8 `toml:"luma"`
}

// OffCode is the sentinel code meaning "off". It never indexes a palette.
const OffCode = 0xFF

var (
	// Off is the color of an unlit LED.
	Off = IndexedColor{Code: OffCode}
	// Red is the dimmest red of the default palette. It is the default
	// overheat color.
	Red = IndexedColor{Code: 1}
)

// IsOff returns true if the color is the off sentinel.
func (c IndexedColor) IsOff() bool {
	return c.Code == OffCode
}

// WithCode returns the color with its code replaced.
func (c IndexedColor) WithCode(code uint8) IndexedColor {
	return IndexedColor{Code: code, Luma: c.Luma}
}

// WithLuma returns the color with its luma replaced. It panics if luma is
// outside [0, MaxLuma].
func (c IndexedColor) WithLuma(luma uint8) IndexedColor {
	mustLuma(luma)
	return IndexedColor{Code: c.Code, Luma: luma}
}

// Validate returns an error if the luma is out of range.
func (c IndexedColor) Validate() error {
	if c.Luma > MaxLuma {
		return fmt.Errorf("luma %d out of range [0, %d]", c.Luma, MaxLuma)
	}
	return nil
}

func (c IndexedColor) String() string {
	if c.IsOff() {
		return "off"
	}
	return fmt.Sprintf("%d@%d", c.Code, c.Luma)
}

func mustLuma(luma uint8) {
	if luma > MaxLuma {
		panic(fmt.Sprintf("strip: luma %d out of range, state is corrupted", luma))
	}
}

// Palette is the table of colors an IndexedColor code refers to.
type Palette []led.RGBColor

// Resolve converts c into an RGB color. The off sentinel and codes outside the
// palette resolve to black. Luma scales the palette entry by a right shift of
// MaxLuma-Luma bits. It panics if the luma is out of range.
func (p Palette) Resolve(c IndexedColor) led.RGBColor {
	if int(c.Code) >= len(p) {
		return led.RGBColor{}
	}
	mustLuma(c.Luma)
	return p[c.Code].Shift(uint(MaxLuma - c.Luma))
}

// DefaultPalette is the 26-entry palette of the strip hardware. Entries 21 to
// 24 are the warm fire range.
var DefaultPalette = Palette{
	{0xff, 0xff, 0xff},
	{0xff, 0x00, 0x00},
	{0x00, 0xff, 0x00},
	{0x00, 0x00, 0xff},
	{0xd3, 0x2f, 0x2f},
	{0x8b, 0xc3, 0x4a},
	{0x03, 0xa9, 0xf4},
	{0xff, 0x98, 0x00},
	{0x4d, 0xd0, 0xe1},
	{0x8c, 0x17, 0xe0},
	{0xff, 0x57, 0x22},
	{0x00, 0x96, 0x88},
	{0x9c, 0x27, 0xb0},
	{0xff, 0xeb, 0x3b},
	{0x3f, 0x51, 0xb5},
	{0xe9, 0x1e, 0x63},
	{0x03, 0x07, 0x1e},
	{0x37, 0x0f, 0x00},
	{0x6a, 0x0f, 0x00},
	{0x9d, 0x0f, 0x00},
	{0xd0, 0x0f, 0x00},
	{0x6d, 0x2f, 0x00},
	{0x7d, 0x3f, 0x10},
	{0x94, 0x4f, 0x00},
	{0xaa, 0x2f, 0x00},
	{0x00, 0x00, 0x00},
}

// DefaultFireBase is the first palette entry of the fire range in
// DefaultPalette.
const DefaultFireBase = 21

// GridPalette is the 16-entry palette of the color-grid remote hardware. Code
// 0 is white; codes 1 to 15 follow the remote's color buttons row by row, from
// the primaries down to the warm bottom rows.
var GridPalette = Palette{
	{0xff, 0xff, 0xff},
	{0xff, 0x00, 0x00},
	{0x00, 0xff, 0x00},
	{0x00, 0x00, 0xff},
	{0xff, 0x40, 0x00},
	{0x40, 0xff, 0x40},
	{0x40, 0x40, 0xff},
	{0xff, 0xff, 0x00},
	{0x00, 0xff, 0xc0},
	{0x80, 0x00, 0xff},
	{0x00, 0xc0, 0xff},
	{0xff, 0x00, 0xc0},
	{0xff, 0x30, 0x00},
	{0xff, 0x60, 0x00},
	{0xe0, 0x40, 0x00},
	{0xc0, 0x20, 0x00},
}

// GridFireBase is the first palette entry of the fire range in GridPalette.
const GridFireBase = 12
