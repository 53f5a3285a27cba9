package led

import (
	"bytes"
	"image/color"
	"testing"
)

func TestRGBColorText(t *testing.T) {
	for _, text := range []string{"#ff8000", "ff8000"} {
		var c RGBColor
		if err := c.UnmarshalText([]byte(text)); err != nil {
			t.Fatal(err)
		}
		if c != RGB(0xff, 0x80, 0x00) {
			t.Errorf("%q parsed as %s", text, c)
		}
	}

	for _, text := range []string{"", "#fff", "#gg0000", "#ff80001"} {
		var c RGBColor
		if err := c.UnmarshalText([]byte(text)); err == nil {
			t.Errorf("%q was accepted", text)
		}
	}

	b, _ := RGB(0x12, 0xab, 0x00).MarshalText()
	if string(b) != "#12ab00" {
		t.Errorf("MarshalText = %q", b)
	}
}

func TestRGBColorShift(t *testing.T) {
	if c := RGB(0xff, 0x98, 0x00).Shift(2); c != RGB(0x3f, 0x26, 0x00) {
		t.Errorf("Shift(2) = %s", c)
	}
}

func TestLEDs(t *testing.T) {
	leds := NewLEDs(3)
	if !leds.Uniform() || leds[0] != (RGBColor{}) {
		t.Fatal("new strip is not black")
	}

	leds.Fill(RGB(1, 2, 3))
	leds[2] = RGB(4, 5, 6)
	if leds.Uniform() {
		t.Error("mixed strip reported uniform")
	}

	pix := leds.AsPixels()
	want := []uint8{1, 2, 3, 1, 2, 3, 4, 5, 6}
	if !bytes.Equal(pix, want) {
		t.Errorf("AsPixels = %v, want %v", pix, want)
	}

	rgba := leds.AppendRGBA(nil)
	if len(rgba) != 3 || rgba[2] != (color.RGBA{R: 4, G: 5, B: 6, A: 0xff}) {
		t.Errorf("AppendRGBA = %v", rgba)
	}

	if NewLEDs(0).AsPixels() != nil {
		t.Error("empty strip has pixels")
	}
}
