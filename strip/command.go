package strip

import "fmt"

// CommandType is the type of a Command.
type CommandType uint8

const (
	TypePowerOn CommandType = iota
	TypePowerOff
	TypeSetMode
	TypeLumaUp
	TypeLumaDown
	TypeSetColor
	TypeIgnore
)

// String returns a string representation of the command type.
func (t CommandType) String() string {
	switch t {
	case TypePowerOn:
		return "power_on"
	case TypePowerOff:
		return "power_off"
	case TypeSetMode:
		return "set_mode"
	case TypeLumaUp:
		return "luma_up"
	case TypeLumaDown:
		return "luma_down"
	case TypeSetColor:
		return "set_color"
	case TypeIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("CommandType(%d)", t)
	}
}

// Command is a semantic command applied to the strip state.
type Command interface {
	// Type returns the type of command.
	Type() CommandType
}

// PowerOn turns the strip on and resets it to the default look.
type PowerOn struct{}

// PowerOff turns the strip off. The mode and color are kept.
type PowerOff struct{}

// SetMode selects an animation mode.
type SetMode struct {
	Mode Mode
}

// LumaUp raises the brightness by one level.
type LumaUp struct{}

// LumaDown lowers the brightness by one level.
type LumaDown struct{}

// SetColor selects a palette code. The code is not checked against the
// palette; unknown codes render black.
type SetColor struct {
	Code uint8
}

// Ignore leaves the state unchanged. Remotes decode buttons they do not use
// to it.
type Ignore struct{}

func (PowerOn) Type() CommandType  { return TypePowerOn }
func (PowerOff) Type() CommandType { return TypePowerOff }
func (SetMode) Type() CommandType  { return TypeSetMode }
func (LumaUp) Type() CommandType   { return TypeLumaUp }
func (LumaDown) Type() CommandType { return TypeLumaDown }
func (SetColor) Type() CommandType { return TypeSetColor }
func (Ignore) Type() CommandType   { return TypeIgnore }

func (c SetMode) String() string  { return "set_mode(" + c.Mode.String() + ")" }
func (c SetColor) String() string { return fmt.Sprintf("set_color(%d)", c.Code) }
