// Package strip implements the strip state machine and its animations.
//
// A Controller owns the State shared between the sampling, frame and render
// tasks. A Renderer turns snapshots of that State into pixels.
package strip

import (
	"sync"
)

// State is the mutable state of the strip.
type State struct {
	Power bool
	Mode  Mode
	// Color is the base color of the colorable modes.
	Color IndexedColor
	// Frame is advanced once per frame tick. It wraps on overflow.
	Frame uint32
	// Overheat is sticky. Only a power-on clears it.
	Overheat bool
	// OverheatColor is the color shown during the on-phase of the overheat
	// pattern. It becomes Off once the latching pattern burns out.
	OverheatColor IndexedColor
	// OverheatFrame is the frame at which Overheat was raised.
	OverheatFrame uint32
}

// Defaults is the look a strip starts with and returns to on power-on.
type Defaults struct {
	Power bool
	Mode  Mode
	Color IndexedColor
	// OverheatColor is the color armed when the overheat flag is raised.
	OverheatColor IndexedColor
}

// Controller owns the strip State. All access goes through a single critical
// section so readers never observe a half-applied update.
type Controller struct {
	mu       sync.Locker
	state    State
	defaults Defaults
}

// NewController creates a controller in its startup state. The locker guards
// the state; if nil, a sync.Mutex is used. It panics if a default color has an
// out-of-range luma.
func NewController(defaults Defaults, locker sync.Locker) *Controller {
	mustLuma(defaults.Color.Luma)
	mustLuma(defaults.OverheatColor.Luma)

	if locker == nil {
		locker = new(sync.Mutex)
	}

	return &Controller{
		mu:       locker,
		defaults: defaults,
		state: State{
			Power:         defaults.Power,
			Mode:          defaults.Mode,
			Color:         defaults.Color,
			OverheatColor: Off,
		},
	}
}

// Lock calls f with the state while holding the critical section. The state
// pointer must not be retained after f returns. f must not block.
func (c *Controller) Lock(f func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(&c.state)
}

// Snapshot returns a copy of the state taken in one critical section.
func (c *Controller) Snapshot() State {
	var s State
	c.Lock(func(state *State) { s = *state })
	return s
}

// Apply applies a decoded command.
func (c *Controller) Apply(cmd Command) {
	c.Lock(func(s *State) { c.apply(s, cmd) })
}

// ApplyLocked applies a decoded command to a state obtained through Lock.
func (c *Controller) ApplyLocked(s *State, cmd Command) {
	c.apply(s, cmd)
}

func (c *Controller) apply(s *State, cmd Command) {
	switch cmd := cmd.(type) {
	case PowerOn:
		s.Power = true
		s.Mode = c.defaults.Mode
		s.Color = c.defaults.Color
		s.Overheat = false
		s.OverheatColor = Off
	case PowerOff:
		s.Power = false
	case SetMode:
		s.Mode = cmd.Mode
	case LumaUp:
		mustLuma(s.Color.Luma)
		if s.Color.Luma < MaxLuma {
			s.Color = s.Color.WithLuma(s.Color.Luma + 1)
		}
	case LumaDown:
		mustLuma(s.Color.Luma)
		if s.Color.Luma > 0 {
			s.Color = s.Color.WithLuma(s.Color.Luma - 1)
		}
	case SetColor:
		s.Color = s.Color.WithCode(cmd.Code)
	case Ignore:
	default:
		panic("strip: unknown command type")
	}
}

// AdvanceFrame advances the frame counter by one.
func (c *Controller) AdvanceFrame() {
	c.Lock(AdvanceFrame)
}

// AdvanceFrame advances the frame counter of s by one. It is meant to be used
// inside Controller.Lock.
func AdvanceFrame(s *State) {
	s.Frame++
}

// ApplyOverheat raises the sticky overheat flag. The overheat color is only
// armed on the first call after a power-on, so a burnt-out pattern stays
// dark.
func (c *Controller) ApplyOverheat() {
	c.Lock(func(s *State) {
		if !s.Overheat {
			s.Overheat = true
			s.OverheatColor = c.defaults.OverheatColor
			s.OverheatFrame = s.Frame
		}
	})
}

// BurnOut turns the overheat color off. The render loop calls it when a
// latching overheat frame reports that it burnt out.
func (c *Controller) BurnOut() {
	c.Lock(func(s *State) {
		if s.Overheat {
			s.OverheatColor = Off
		}
	})
}
