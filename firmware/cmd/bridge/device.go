package main

import (
	"fmt"
	"sync"
	"time"

	"libdb.so/irglow/firmware"
	"libdb.so/irglow/ledserial"
)

const (
	// watchdogTimeout is the window the host has to send feed packets once
	// the strip is initialized.
	watchdogTimeout = 500 * time.Millisecond
	// reportPeriod is how often the IR queue is drained.
	reportPeriod = time.Millisecond
	// temperaturePeriod is how often a temperature sample is sent.
	temperaturePeriod = 250 * time.Millisecond
)

// Device stores the current state of the device.
type Device struct {
	serial      SerialReadWriter
	strip       *firmware.Strip
	ir          *firmware.IRReceiver
	thermometer *firmware.Thermometer

	writeMu   sync.Mutex
	watchdog  firmware.Watchdog
	watching  bool
	numLEDs   uint16
	ledBuffer []byte
}

// Run runs the device loop forever.
func (d *Device) Run() {
	go d.report()

	for {
		p, err := d.readPacket()
		if err != nil {
			d.logError(err)
			continue
		}

		if err := d.handlePacket(p); err != nil {
			d.logError(err)
		}
	}
}

// report forwards IR frames and temperature samples to the host.
func (d *Device) report() {
	ticker := time.NewTicker(reportPeriod)
	defer ticker.Stop()

	lastSample := time.Now()
	var dropped uint32

	for range ticker.C {
		if f, ok, _ := d.ir.Poll(); ok {
			d.sendPacket(ledserial.IRPacket{
				Address: f.Address,
				Command: f.Command,
				Repeat:  f.Repeat,
			})
		}

		if n := d.ir.Dropped(); n != dropped {
			d.log(fmt.Sprintf("dropped %d IR frames", n-dropped))
			dropped = n
		}

		if time.Since(lastSample) >= temperaturePeriod {
			lastSample = time.Now()

			raw, err := d.thermometer.ReadRawTemperature()
			if err != nil {
				d.logError(err)
				continue
			}
			d.sendPacket(ledserial.TemperaturePacket{Raw: uint16(raw)})
		}
	}
}

func (d *Device) log(msg string) {
	d.sendPacket(ledserial.LogPacket{Message: msg})
}

func (d *Device) logError(err error) {
	d.sendPacket(ledserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) panic(err error) {
	d.sendPacket(ledserial.PanicPacket{Message: err.Error()})
	firmware.Halt()
}

func (d *Device) sendPacket(p ledserial.OutgoingPacket) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	ledserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) readPacket() (ledserial.IncomingPacket, error) {
	return ledserial.ReadIncomingPacket(d.serial, ledserial.ReadContext{
		NumLEDs:   d.numLEDs,
		LEDBuffer: d.ledBuffer,
	})
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	turnOnMainLED(255, 255, 255)
	defer turnOffMainLED()

	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		d.numLEDs = p.NumLEDs
		d.ledBuffer = make([]byte, 3*int(p.NumLEDs))
		d.clearLEDs(true)

		if !d.watching {
			wd, err := firmware.StartWatchdog(watchdogTimeout)
			if err != nil {
				d.panic(fmt.Errorf("failed to start watchdog: %w", err))
			}
			d.watchdog = wd
			d.watching = true
		}

	case ledserial.ClearPacket:
		d.clearLEDs(false)

	case ledserial.SetPacket:
		d.strip.WritePixels(p.Pix)

	case ledserial.FeedPacket:
		if d.watching {
			d.watchdog.Feed()
		}
		// Feeds are too frequent to acknowledge.
		return nil

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	d.sendPacket(ledserial.AckPacket{
		IncomingPacketType: p.Type(),
	})
	return nil
}

// clearLEDs turns the strip off. If signalReady is true, the first LED is lit
// red and the last one blue, so the strip length can be checked by eye.
func (d *Device) clearLEDs(signalReady bool) {
	pix := d.ledBuffer
	for i := range pix {
		pix[i] = 0
	}

	if signalReady && len(pix) >= 3 {
		pix[0] = 255          // red
		pix[len(pix)-1] = 255 // blue
	}

	d.strip.WritePixels(pix)
}
