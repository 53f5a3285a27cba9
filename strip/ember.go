package strip

import "libdb.so/irglow/internal/led"

// EmberSegments is the number of independently animated segments.
const EmberSegments = 4

// EmberPalette is the warm palette the ember levels index, dimmest first.
var EmberPalette = [...]led.RGBColor{
	{3, 1, 0},
	{7, 3, 0},
	{12, 5, 0},
	{20, 8, 0},
	{28, 10, 0},
	{30, 12, 0},
	{32, 14, 0},
	{40, 16, 0},
}

const emberSeed = 42

// Ember is a fire animation for strips with very few pixels. Each of its
// segments holds a level that is nudged down, up or kept on every step. The
// renderer steps it once per frame.
type Ember struct {
	seed   uint64
	levels [EmberSegments]uint8
}

// NewEmber creates an ember with every segment at its dimmest level.
func NewEmber() *Ember {
	return &Ember{seed: emberSeed}
}

// Step advances every segment by one step.
func (e *Ember) Step() {
	for i := range e.levels {
		e.seed = lcgNext(e.seed)
		rnd := uint8(e.seed)
		switch {
		case rnd < 100:
			if e.levels[i] > 0 {
				e.levels[i]--
			}
		case rnd > 150:
			if e.levels[i] < uint8(len(EmberPalette)-1) {
				e.levels[i]++
			}
		}
	}
}

// Levels returns the current segment levels.
func (e *Ember) Levels() [EmberSegments]uint8 {
	return e.levels
}

// Draw spreads the current segment colors evenly over leds.
func (e *Ember) Draw(leds led.LEDs) {
	for i := range leds {
		leds[i] = EmberPalette[e.levels[i*EmberSegments/len(leds)]]
	}
}
