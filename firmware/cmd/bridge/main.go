// Command bridge is the device side of the irglow serial link. The host runs
// the daemon and uses this device as its IR receiver, strip, thermometer and
// watchdog.
package main

import (
	"machine"

	"libdb.so/irglow/firmware"
)

func main() {
	d := &Device{
		serial:      WrapSerial(machine.Serial),
		strip:       firmware.NewStrip(firmware.StripPin),
		ir:          firmware.NewIRReceiver(firmware.IRPin),
		thermometer: firmware.NewThermometer(firmware.ThermistorPin),
	}
	d.Run()
}
