package strip

import (
	"encoding"
	"fmt"
)

// Mode is an animation mode. Exactly one is active at a time.
type Mode uint8

const (
	Static Mode = iota
	Flash
	Strobe
	Fade
	Smooth
	Fire
	// Overheat is only ever shown by the thermal guard. No command table
	// produces it.
	Overheat
)

var modeNames = [...]string{
	Static:   "static",
	Flash:    "flash",
	Strobe:   "strobe",
	Fade:     "fade",
	Smooth:   "smooth",
	Fire:     "fire",
	Overheat: "overheat",
}

var (
	_ encoding.TextUnmarshaler = (*Mode)(nil)
	_ encoding.TextMarshaler   = Mode(0)
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

func (m *Mode) UnmarshalText(text []byte) error {
	for i, name := range modeNames {
		if name == string(text) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown animation mode %q", text)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// FireStrategy selects how the Fire mode is animated.
type FireStrategy uint8

const (
	// FlickerFire picks one warm palette entry per frame from a generator
	// seeded with the frame counter. The whole strip shows the same color.
	FlickerFire FireStrategy = iota
	// EmberFire runs four independent segment levels that drift up and down
	// over a small warm palette. It suits strips with very few pixels.
	EmberFire
)

func (s FireStrategy) String() string {
	switch s {
	case FlickerFire:
		return "flicker"
	case EmberFire:
		return "ember"
	default:
		return fmt.Sprintf("FireStrategy(%d)", s)
	}
}

func (s *FireStrategy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "flicker":
		*s = FlickerFire
	case "ember":
		*s = EmberFire
	default:
		return fmt.Errorf("unknown fire strategy %q", text)
	}
	return nil
}

func (s FireStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
