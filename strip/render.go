package strip

import (
	"libdb.so/irglow/internal/led"
)

// Frame is the output of a single render.
type Frame struct {
	// Pixels holds one color per strip position.
	Pixels led.LEDs
	// BurnOut is true when a latching overheat pattern has finished its
	// first on-phase and the caller must apply Controller.BurnOut.
	BurnOut bool
}

// RendererConfig configures a Renderer.
type RendererConfig struct {
	// Size is the number of pixels on the strip.
	Size int
	// Palette resolves indexed colors.
	Palette Palette
	// Fire selects the Fire mode strategy.
	Fire FireStrategy
	// FireBase is the first of the four warm palette entries used by the
	// flicker strategy.
	FireBase uint8
	// OverheatLatch makes the overheat pattern go dark after its first
	// on-phase instead of blinking forever.
	OverheatLatch bool
}

// emberCatchUp bounds the ember steps taken for frames that passed while
// the strip was not showing the ember.
const emberCatchUp = 64

// Renderer turns state snapshots into pixels. It is not safe for concurrent
// use; the render loop owns it.
type Renderer struct {
	cfg   RendererConfig
	ember *Ember
	// emberFrame is the last frame the ember was stepped to.
	emberFrame   uint32
	emberStarted bool
}

// NewRenderer creates a new renderer.
func NewRenderer(cfg RendererConfig) *Renderer {
	r := &Renderer{cfg: cfg}
	if cfg.Fire == EmberFire {
		r.ember = NewEmber()
	}
	return r
}

// Render renders the given snapshot. The result only depends on the snapshot,
// except for the Fire mode with the ember strategy, which advances the
// ember's own generator once for every frame that passed since it was last
// drawn.
func (r *Renderer) Render(s State) Frame {
	f := Frame{Pixels: led.NewLEDs(r.cfg.Size)}

	switch {
	case !s.Power:
		// Already black.
	case s.Overheat:
		c, burnOut := r.overheat(s)
		f.Pixels.Fill(r.cfg.Palette.Resolve(c))
		f.BurnOut = burnOut
	case s.Mode == Fire && r.ember != nil:
		r.stepEmber(s.Frame)
		r.ember.Draw(f.Pixels)
	default:
		f.Pixels.Fill(r.cfg.Palette.Resolve(r.color(s)))
	}

	return f
}

func (r *Renderer) stepEmber(frame uint32) {
	if !r.emberStarted {
		r.emberStarted = true
		r.emberFrame = frame
		return
	}
	steps := min(frame-r.emberFrame, emberCatchUp)
	for i := uint32(0); i < steps; i++ {
		r.ember.Step()
	}
	r.emberFrame = frame
}

// overheat returns the color of the overheat pattern and whether a latching
// pattern has burnt out. The pattern burns out in the first off-phase that
// follows an on-phase shown since the overheat was raised.
func (r *Renderer) overheat(s State) (IndexedColor, bool) {
	if s.Frame%10 < 5 {
		return s.OverheatColor, false
	}
	if !r.cfg.OverheatLatch || s.OverheatColor.IsOff() {
		return Off, false
	}
	return Off, overheatShown(s.OverheatFrame, s.Frame)
}

// overheatShown reports whether an on-phase frame lies in [since, frame].
func overheatShown(since, frame uint32) bool {
	phase := since % 10
	return phase < 5 || frame-since >= 10-phase
}

// color returns the color every pixel has for the given mode and frame.
func (r *Renderer) color(s State) IndexedColor {
	frame := s.Frame
	color := s.Color

	switch s.Mode {
	case Static:
		return color

	case Flash:
		if frame%10 < 5 {
			return color
		}
		return Off

	case Strobe:
		if frame%15 < 9 && frame%2 == 0 {
			return color
		}
		return Off

	case Smooth:
		hue := (frame >> 2) % 5
		return color.WithCode(uint8(hue*3 + 1))

	case Fade:
		luma := max(color.Luma, 1)
		dim := uint8(MaxLuma - (frame>>1)%6)
		if luma < dim {
			return color.WithLuma(0)
		}
		return color.WithLuma(luma - dim)

	case Fire:
		rnd := FlickerRandom(frame)
		return color.WithCode(r.cfg.FireBase + rnd%4)

	case Overheat:
		// Selected by hand rather than by the guard: blink like the guard
		// would, without burning out.
		if frame%10 < 5 {
			return color
		}
		return Off

	default:
		panic("strip: invalid animation mode")
	}
}

// FlickerRandom returns the flicker value of a frame. The generator is
// restarted from the frame counter on every call and advanced once.
func FlickerRandom(frame uint32) uint8 {
	seed := lcgNext(uint64(frame))
	return uint8(uint64(frame) + seed)
}

const (
	lcgMultiplier = 16807
	lcgModulus    = 0x7fff_ffff
)

// lcgNext advances the Park-Miller generator.
func lcgNext(seed uint64) uint64 {
	return seed * lcgMultiplier % lcgModulus
}
