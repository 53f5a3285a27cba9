// Package firmware binds the irglow peripherals to TinyGo hardware.
package firmware

import "machine"

// Pins of the XIAO RP2040 carrier board.
var (
	StripPin      = machine.D10
	IRPin         = machine.D7
	ThermistorPin = machine.A0
	MainLEDPin    = machine.GPIO12
	MainLEDPower  = machine.GPIO11
)
