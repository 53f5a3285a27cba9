package irglow

import (
	"encoding"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/irglow/command"
	"libdb.so/irglow/strip"
)

// Config is the configuration for the irglow daemon.
type Config struct {
	// Device is the path to the serial device of the strip bridge.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Revision is the name of the hardware revision, one of Revisions.
	Revision string `toml:"revision"`
	// SensorTimeout is how long a temperature sample from the bridge stays
	// valid. It must be positive.
	SensorTimeout TOMLDuration `toml:"sensor_timeout"`
	// Hardware overrides constants of the revision.
	Hardware HardwareOverrides `toml:"hardware"`
}

// HardwareOverrides overrides the constants of a hardware revision. Unset
// fields keep the revision's value.
type HardwareOverrides struct {
	StripSize         *int                `toml:"strip_size"`
	FramePeriod       *TOMLDuration       `toml:"frame_period"`
	SamplePeriod      *TOMLDuration       `toml:"sample_period"`
	RenderInterval    *TOMLDuration       `toml:"render_interval"`
	WatchdogTimeout   *TOMLDuration       `toml:"watchdog_timeout"`
	IRAddress         *uint16             `toml:"ir_address"`
	OverheatThreshold *int                `toml:"overheat_threshold"`
	CommandTable      *command.Table      `toml:"command_table"`
	Palette           []string            `toml:"palette"`
	DefaultPower      *bool               `toml:"default_power"`
	DefaultMode       *strip.Mode         `toml:"default_mode"`
	DefaultColor      *strip.IndexedColor `toml:"default_color"`
	OverheatColor     *strip.IndexedColor `toml:"overheat_color"`
	Fire              *strip.FireStrategy `toml:"fire"`
	FireBase          *uint8              `toml:"fire_base"`
	OverheatLatch     *bool               `toml:"overheat_latch"`
	HaltOnSensorError *bool               `toml:"halt_on_sensor_error"`
}

// Apply applies the overrides to hw.
func (o *HardwareOverrides) Apply(hw *Hardware) error {
	set(&hw.StripSize, o.StripSize)
	setDuration(&hw.FramePeriod, o.FramePeriod)
	setDuration(&hw.SamplePeriod, o.SamplePeriod)
	setDuration(&hw.RenderInterval, o.RenderInterval)
	setDuration(&hw.WatchdogTimeout, o.WatchdogTimeout)
	set(&hw.IRAddress, o.IRAddress)
	set(&hw.OverheatThreshold, o.OverheatThreshold)
	set(&hw.CommandTable, o.CommandTable)
	set(&hw.Defaults.Power, o.DefaultPower)
	set(&hw.Defaults.Mode, o.DefaultMode)
	set(&hw.Defaults.Color, o.DefaultColor)
	set(&hw.Defaults.OverheatColor, o.OverheatColor)
	set(&hw.Fire, o.Fire)
	set(&hw.FireBase, o.FireBase)
	set(&hw.OverheatLatch, o.OverheatLatch)
	set(&hw.HaltOnSensorError, o.HaltOnSensorError)
	if o.Palette != nil {
		palette, err := ParsePalette(o.Palette...)
		if err != nil {
			return errors.Wrap(err, "invalid palette")
		}
		hw.Palette = palette
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *TOMLDuration) {
	if v != nil {
		*dst = time.Duration(*v)
	}
}

// HardwareConfig returns the hardware constants of the configured revision
// with the overrides applied.
func (c *Config) HardwareConfig() (Hardware, error) {
	hw, err := Revision(c.Revision)
	if err != nil {
		return Hardware{}, err
	}
	if err := c.Hardware.Apply(&hw); err != nil {
		return Hardware{}, err
	}
	return hw, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("no serial device configured")
	}
	if c.Baud <= 0 {
		return errors.New("baud rate must be positive")
	}
	if c.SensorTimeout <= 0 {
		return errors.New("sensor timeout must be positive")
	}

	hw, err := c.HardwareConfig()
	if err != nil {
		return err
	}
	if err := hw.Validate(); err != nil {
		return errors.Wrapf(err, "invalid hardware for revision %q", c.Revision)
	}

	return nil
}

// DefaultConfig returns the configuration used for keys missing from the
// configuration file.
func DefaultConfig() Config {
	return Config{
		Device:        "/dev/ttyACM0",
		Baud:          115200,
		Revision:      "strip",
		SensorTimeout: TOMLDuration(2 * time.Second),
	}
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Keys missing from the
// file take their value from DefaultConfig; keys present are kept as written
// and checked by Validate.
func ParseConfig(r io.Reader) (*Config, error) {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return nil, err
	}

	var file Config
	if err := tree.Unmarshal(&file); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if tree.Has("device") {
		config.Device = file.Device
	}
	if tree.Has("baud") {
		config.Baud = file.Baud
	}
	if tree.Has("revision") {
		config.Revision = file.Revision
	}
	if tree.Has("sensor_timeout") {
		config.SensorTimeout = file.SensorTimeout
	}
	config.Hardware = file.Hardware

	return &config, nil
}
