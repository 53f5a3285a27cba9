package main

import (
	"machine"

	"libdb.so/irglow/firmware"
	"tinygo.org/x/drivers/ws2812"
)

// mainLED is the status LED on the board. It is lit while a packet is being
// read.
var mainLED struct {
	dev         ws2812.Device
	initialized bool
}

func initMainLED() {
	if mainLED.initialized {
		return
	}
	// https://wiki.seeedstudio.com/XIAO-RP2040-with-Arduino/
	firmware.MainLEDPower.Configure(machine.PinConfig{Mode: machine.PinOutput})
	firmware.MainLEDPower.Low()

	firmware.MainLEDPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	mainLED.dev = ws2812.New(firmware.MainLEDPin)
	mainLED.initialized = true
}

func turnOnMainLED(r, g, b uint8) {
	initMainLED()
	firmware.MainLEDPower.High()
	mainLED.dev.WriteByte(g)
	mainLED.dev.WriteByte(r)
	mainLED.dev.WriteByte(b)
}

func turnOffMainLED() {
	initMainLED()
	firmware.MainLEDPower.Low()
}
