package irglow

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"libdb.so/irglow/command"
	"libdb.so/irglow/strip"
)

// Hardware holds the constants of one hardware revision. The core logic is
// parametric over it; nothing else is revision specific.
type Hardware struct {
	// StripSize is the number of addressable pixels.
	StripSize int
	// FramePeriod is the period of the frame tick.
	FramePeriod time.Duration
	// SamplePeriod is the period at which the IR receiver is polled.
	SamplePeriod time.Duration
	// RenderInterval paces the render loop. Zero means the loop runs
	// whenever nothing else does.
	RenderInterval time.Duration
	// WatchdogTimeout is the window within which the watchdog must be fed.
	WatchdogTimeout time.Duration
	// IRAddress is the only IR address whose commands are applied.
	IRAddress uint16
	// OverheatThreshold is the raw temperature reading above which the strip
	// overheats.
	OverheatThreshold int
	// CommandTable decodes IR command codes.
	CommandTable command.Table
	// Palette resolves indexed colors.
	Palette strip.Palette
	// Defaults is the startup and power-on look.
	Defaults strip.Defaults
	// Fire selects the Fire mode strategy.
	Fire strip.FireStrategy
	// FireBase is the first of the four warm palette entries of the flicker
	// fire.
	FireBase uint8
	// OverheatLatch makes the overheat pattern go dark after its first
	// on-phase.
	OverheatLatch bool
	// HaltOnSensorError stops the device when the temperature cannot be read
	// instead of running with an unknown thermal state.
	HaltOnSensorError bool
}

// Validate validates the hardware constants.
func (h *Hardware) Validate() error {
	if h.StripSize < 1 {
		return errors.New("strip size must be at least 1")
	}
	if h.FramePeriod <= 0 {
		return errors.New("frame period must be positive")
	}
	if h.SamplePeriod <= 0 {
		return errors.New("sample period must be positive")
	}
	if h.RenderInterval < 0 {
		return errors.New("render interval must not be negative")
	}
	if h.WatchdogTimeout <= h.FramePeriod {
		return fmt.Errorf(
			"watchdog timeout %s must be longer than the frame period %s",
			h.WatchdogTimeout, h.FramePeriod)
	}
	if len(h.Palette) == 0 {
		return errors.New("palette is empty")
	}
	if len(h.Palette) > strip.OffCode {
		return fmt.Errorf("palette has %d entries, at most %d allowed", len(h.Palette), strip.OffCode)
	}
	if h.Fire == strip.FlickerFire && int(h.FireBase)+3 >= len(h.Palette) {
		return fmt.Errorf("fire range %d..%d is outside the palette", h.FireBase, int(h.FireBase)+3)
	}
	if err := h.Defaults.Color.Validate(); err != nil {
		return errors.Wrap(err, "invalid default color")
	}
	if err := h.Defaults.OverheatColor.Validate(); err != nil {
		return errors.Wrap(err, "invalid overheat color")
	}
	if h.Defaults.Mode == strip.Overheat {
		return errors.New("overheat cannot be the default mode")
	}
	return nil
}

// RendererConfig returns the renderer configuration of the hardware.
func (h *Hardware) RendererConfig() strip.RendererConfig {
	return strip.RendererConfig{
		Size:          h.StripSize,
		Palette:       h.Palette,
		Fire:          h.Fire,
		FireBase:      h.FireBase,
		OverheatLatch: h.OverheatLatch,
	}
}

// Revisions are the known hardware revisions.
var Revisions = map[string]Hardware{
	// strip is the 24-pixel strip with the numeric keypad remote.
	"strip": {
		StripSize:         24,
		FramePeriod:       80 * time.Millisecond,
		SamplePeriod:      50 * time.Microsecond,
		WatchdogTimeout:   200 * time.Millisecond,
		IRAddress:         7,
		OverheatThreshold: 3000,
		CommandTable:      command.NumericTable,
		Palette:           strip.DefaultPalette,
		Defaults: strip.Defaults{
			Power:         true,
			Mode:          strip.Fire,
			Color:         strip.IndexedColor{Code: 0, Luma: 0},
			OverheatColor: strip.Red,
		},
		Fire:          strip.FlickerFire,
		FireBase:      strip.DefaultFireBase,
		OverheatLatch: true,
	},
	// grid is the 30-pixel strip sold with the 24-key color-grid remote.
	"grid": {
		StripSize:         30,
		FramePeriod:       time.Second / 24,
		SamplePeriod:      20 * time.Microsecond,
		WatchdogTimeout:   100 * time.Millisecond,
		IRAddress:         0,
		OverheatThreshold: 2800,
		CommandTable:      command.GridTable,
		Palette:           strip.GridPalette,
		Defaults: strip.Defaults{
			Power:         false,
			Mode:          strip.Static,
			Color:         strip.IndexedColor{Code: 0, Luma: 3},
			OverheatColor: strip.Red,
		},
		Fire:              strip.FlickerFire,
		FireBase:          strip.GridFireBase,
		HaltOnSensorError: true,
	},
	// lantern is the 4-pixel lantern. Its fire is the ember animation.
	"lantern": {
		StripSize:         4,
		FramePeriod:       160 * time.Millisecond,
		SamplePeriod:      50 * time.Microsecond,
		WatchdogTimeout:   200 * time.Millisecond,
		IRAddress:         7,
		OverheatThreshold: 3000,
		CommandTable:      command.LanternTable,
		Palette:           strip.DefaultPalette,
		Defaults: strip.Defaults{
			Power:         true,
			Mode:          strip.Fire,
			Color:         strip.IndexedColor{Code: 0, Luma: 5},
			OverheatColor: strip.Red,
		},
		Fire:     strip.EmberFire,
		FireBase: strip.DefaultFireBase,
	},
}

// Revision returns a copy of the named hardware revision.
func Revision(name string) (Hardware, error) {
	hw, ok := Revisions[name]
	if !ok {
		return Hardware{}, fmt.Errorf("unknown hardware revision %q", name)
	}
	hw.Palette = append(strip.Palette(nil), hw.Palette...)
	return hw, nil
}

// ParsePalette parses a palette from "#rrggbb" strings.
func ParsePalette(colors ...string) (strip.Palette, error) {
	palette := make(strip.Palette, len(colors))
	for i, c := range colors {
		if err := palette[i].UnmarshalText([]byte(c)); err != nil {
			return nil, errors.Wrapf(err, "palette entry %d", i)
		}
	}
	return palette, nil
}
