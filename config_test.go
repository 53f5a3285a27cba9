package irglow

import (
	"strings"
	"testing"
	"time"

	"libdb.so/irglow/command"
	"libdb.so/irglow/internal/led"
	"libdb.so/irglow/strip"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(``))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Device != "/dev/ttyACM0" || cfg.Baud != 115200 || cfg.Revision != "strip" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	hw, err := cfg.HardwareConfig()
	if err != nil {
		t.Fatal(err)
	}
	if hw.StripSize != 24 || hw.IRAddress != 7 || hw.CommandTable != command.NumericTable {
		t.Fatalf("unexpected strip hardware: %+v", hw)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	const config = `
device = "/dev/ttyUSB1"
baud = 9600
revision = "grid"
sensor_timeout = "500ms"

[hardware]
strip_size = 12
frame_period = "50ms"
sample_period = "1ms"
render_interval = "16ms"
ir_address = 3
command_table = "numeric"
palette = ["#ffffff", "#ff0000", "#00ff00", "#0000ff", "#ff8000", "#ff4000"]
default_mode = "smooth"
default_color = { code = 1, luma = 4 }
fire = "ember"
overheat_latch = true
`

	cfg, err := ParseConfig(strings.NewReader(config))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Device != "/dev/ttyUSB1" || cfg.Baud != 9600 {
		t.Errorf("serial settings not parsed: %+v", cfg)
	}
	if time.Duration(cfg.SensorTimeout) != 500*time.Millisecond {
		t.Errorf("sensor timeout = %s", time.Duration(cfg.SensorTimeout))
	}

	hw, err := cfg.HardwareConfig()
	if err != nil {
		t.Fatal(err)
	}

	if hw.StripSize != 12 {
		t.Errorf("strip size = %d", hw.StripSize)
	}
	if hw.FramePeriod != 50*time.Millisecond || hw.SamplePeriod != time.Millisecond {
		t.Errorf("periods = %s, %s", hw.FramePeriod, hw.SamplePeriod)
	}
	if hw.RenderInterval != 16*time.Millisecond {
		t.Errorf("render interval = %s", hw.RenderInterval)
	}
	if hw.IRAddress != 3 || hw.CommandTable != command.NumericTable {
		t.Errorf("ir = %d, %s", hw.IRAddress, hw.CommandTable)
	}
	if len(hw.Palette) != 6 || hw.Palette[4] != led.RGB(0xff, 0x80, 0x00) {
		t.Errorf("palette = %v", hw.Palette)
	}
	if hw.Defaults.Mode != strip.Smooth || hw.Defaults.Color != (strip.IndexedColor{Code: 1, Luma: 4}) {
		t.Errorf("defaults = %+v", hw.Defaults)
	}
	if hw.Fire != strip.EmberFire || !hw.OverheatLatch {
		t.Errorf("fire = %s, latch = %v", hw.Fire, hw.OverheatLatch)
	}

	// Keys not overridden keep the grid revision's values.
	if hw.WatchdogTimeout != 100*time.Millisecond || !hw.HaltOnSensorError || hw.Defaults.Power {
		t.Errorf("revision values lost: %+v", hw)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestParseConfigRejectsUnknownNames(t *testing.T) {
	configs := []string{
		"[hardware]\ndefault_mode = \"rainbow\"",
		"[hardware]\ncommand_table = \"qwerty\"",
		"[hardware]\nfire = \"plasma\"",
		"[hardware]\nframe_period = \"soon\"",
	}

	for _, config := range configs {
		if _, err := ParseConfig(strings.NewReader(config)); err == nil {
			t.Errorf("config %q was accepted", config)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"unknown revision", `revision = "toaster"`},
		{"empty strip", "[hardware]\nstrip_size = 0"},
		{"bad luma", "[hardware]\ndefault_color = { code = 0, luma = 6 }"},
		{"slow frames", "[hardware]\nframe_period = \"1s\""},
		{"bad palette", "[hardware]\npalette = [\"#12\"]"},
		{"fire outside palette", "[hardware]\npalette = [\"#ffffff\"]"},
		{"overheat default", "[hardware]\ndefault_mode = \"overheat\""},
		{"zero sensor timeout", `sensor_timeout = "0s"`},
		{"zero baud", `baud = 0`},
		{"empty device", `device = ""`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := ParseConfig(strings.NewReader(test.config))
			if err != nil {
				t.Fatal(err)
			}
			if err := cfg.Validate(); err == nil {
				t.Fatal("invalid config was accepted")
			}
		})
	}
}

func TestRevisionsAreValid(t *testing.T) {
	for name := range Revisions {
		hw, err := Revision(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := hw.Validate(); err != nil {
			t.Errorf("revision %q: %v", name, err)
		}
	}
}

func TestRevisionCopiesPalette(t *testing.T) {
	hw, err := Revision("strip")
	if err != nil {
		t.Fatal(err)
	}
	hw.Palette[0] = led.RGBColor{}

	if strip.DefaultPalette[0] != led.RGB(0xff, 0xff, 0xff) {
		t.Fatal("Revision shares the palette with the preset")
	}
}
