// Package command decodes raw IR remote command codes into strip commands.
package command

import (
	"encoding"
	"fmt"

	"libdb.so/irglow/strip"
)

// Table is a command-code table of a remote control. Decoding is pure and
// total: every code maps to exactly one command.
type Table uint8

const (
	// NumericTable is the numeric keypad remote. Codes without a button of
	// their own select a color.
	NumericTable Table = iota
	// GridTable is the 24-key color-grid remote with four columns and six
	// rows. Color buttons are derived from their row and column.
	GridTable
	// LanternTable is the lantern's two-button remote: 0 turns it on and 1
	// turns it off. Every other code is ignored.
	LanternTable
)

var (
	_ encoding.TextUnmarshaler = (*Table)(nil)
	_ encoding.TextMarshaler   = Table(0)
)

// String returns the name of the table.
func (t Table) String() string {
	switch t {
	case NumericTable:
		return "numeric"
	case GridTable:
		return "grid"
	case LanternTable:
		return "lantern"
	default:
		return fmt.Sprintf("Table(%d)", t)
	}
}

func (t *Table) UnmarshalText(text []byte) error {
	switch string(text) {
	case "numeric":
		*t = NumericTable
	case "grid":
		*t = GridTable
	case "lantern":
		*t = LanternTable
	default:
		return fmt.Errorf("unknown command table %q", text)
	}
	return nil
}

func (t Table) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Decode decodes a raw command code.
func (t Table) Decode(raw uint8) strip.Command {
	switch t {
	case NumericTable:
		return decodeNumeric(raw)
	case GridTable:
		return decodeGrid(raw)
	case LanternTable:
		return decodeLantern(raw)
	default:
		panic("command: invalid table")
	}
}

// numericFallbackColors is the number of palette codes reachable through
// unmapped numeric codes.
const numericFallbackColors = 16

func decodeNumeric(raw uint8) strip.Command {
	switch raw {
	case 0, 13:
		return strip.PowerOff{}
	case 1, 22:
		return strip.PowerOn{}
	case 2:
		return strip.SetMode{Mode: strip.Static}
	case 11:
		return strip.SetMode{Mode: strip.Flash}
	case 15:
		return strip.SetMode{Mode: strip.Strobe}
	case 19:
		return strip.SetMode{Mode: strip.Fade}
	case 23:
		return strip.SetMode{Mode: strip.Smooth}
	case 24:
		return strip.LumaUp{}
	case 82:
		return strip.LumaDown{}
	case 69:
		return strip.SetColor{Code: 7}
	case 70:
		return strip.SetColor{Code: 10}
	case 71:
		return strip.SetColor{Code: 13}
	case 68:
		return strip.SetColor{Code: 14}
	case 64:
		return strip.SetColor{Code: 15}
	case 67:
		return strip.SetColor{Code: 16}
	default:
		return strip.SetColor{Code: raw % numericFallbackColors}
	}
}

const gridColumns = 4

func decodeGrid(raw uint8) strip.Command {
	switch raw {
	case 0:
		return strip.LumaUp{}
	case 1:
		return strip.LumaDown{}
	case 2:
		return strip.PowerOff{}
	case 3:
		return strip.PowerOn{}
	case 7:
		return strip.SetColor{Code: 0}
	case 11:
		return strip.SetMode{Mode: strip.Flash}
	case 15:
		return strip.SetMode{Mode: strip.Strobe}
	case 19:
		return strip.SetMode{Mode: strip.Fade}
	case 23:
		return strip.SetMode{Mode: strip.Smooth}
	default:
		return strip.SetColor{Code: GridColor(raw)}
	}
}

// GridColor returns the color code of a grid button. The arithmetic wraps in
// 8 bits, so codes in the first row, which all have buttons of their own,
// would wrap to large codes that render black.
func GridColor(raw uint8) uint8 {
	row := raw / gridColumns
	column := (raw - row*gridColumns) % 3
	return column + (row-1)*3 + 1
}

func decodeLantern(raw uint8) strip.Command {
	switch raw {
	case 0:
		return strip.PowerOn{}
	case 1:
		return strip.PowerOff{}
	default:
		return strip.Ignore{}
	}
}
