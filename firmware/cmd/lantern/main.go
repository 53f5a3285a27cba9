// Command lantern runs the irglow daemon on the microcontroller itself.
package main

import (
	"context"
	"log/slog"
	"machine"

	"libdb.so/irglow"
	"libdb.so/irglow/firmware"
)

// revision is the built-in hardware preset.
const revision = "lantern"

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	hw, err := irglow.Revision(revision)
	if err != nil {
		logger.Error("unknown revision", "revision", revision, "error", err)
		firmware.Halt()
	}

	// The hardware watchdog is fed from the frame task, so it gets the same
	// window as the software one.
	wd, err := firmware.StartWatchdog(hw.WatchdogTimeout)
	if err != nil {
		logger.Error("failed to start watchdog", "error", err)
		firmware.Halt()
	}

	d, err := irglow.NewDaemon(hw, irglow.Peripherals{
		IR:          firmware.NewIRReceiver(firmware.IRPin),
		Strip:       firmware.NewStrip(firmware.StripPin),
		Thermometer: firmware.NewThermometer(firmware.ThermistorPin),
		Watchdog:    wd,
		Locker:      &firmware.InterruptLocker{},
	}, logger)
	if err != nil {
		logger.Error("failed to create daemon", "error", err)
		firmware.Halt()
	}

	err = d.Run(context.Background())
	logger.Error("daemon stopped, waiting for reset", "error", err)
	firmware.Halt()
}
