// Package irglow runs an IR remote controlled LED strip.
//
// A Daemon ties the strip state machine to four peripherals: an IR receiver,
// a strip writer, a thermometer and a watchdog. It runs a fast sample task
// that applies remote commands, a frame task that advances the animation
// clock and feeds the watchdog, and a render loop that draws the strip and
// guards against overheating.
package irglow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/irglow/internal/led"
	"libdb.so/irglow/strip"
	"libdb.so/irglow/watchdog"
)

// ErrSensorFailure is returned by Daemon.Run when the temperature cannot be
// read and the hardware halts on sensor errors.
var ErrSensorFailure = errors.New("temperature sensor failure")

// IRFrame is a fully decoded IR remote frame.
type IRFrame struct {
	Address uint16
	Command uint8
	Repeat  bool
}

// IRReceiver is the IR decoder. Poll must not block. It returns false if no
// frame has been fully decoded since the last call.
type IRReceiver interface {
	Poll() (IRFrame, bool, error)
}

// StripWriter writes pixels to the LED strip.
type StripWriter interface {
	WriteColors(led.LEDs) error
}

// Thermometer reads the raw, uncalibrated temperature.
type Thermometer interface {
	ReadRawTemperature() (int, error)
}

// Peripherals are the devices a Daemon drives.
type Peripherals struct {
	IR          IRReceiver
	Strip       StripWriter
	Thermometer Thermometer
	// Watchdog is the hardware watchdog. It may be nil, in which case only
	// the software watchdog runs.
	Watchdog watchdog.Feeder
	// Locker guards the strip state. If nil, a sync.Mutex is used.
	Locker sync.Locker
}

// OverheatGuard compares raw temperature readings against a threshold.
type OverheatGuard struct {
	Threshold int
}

// Check returns true if raw is above the threshold.
func (g OverheatGuard) Check(raw int) bool {
	return raw > g.Threshold
}

// Daemon is the main irglow daemon.
type Daemon struct {
	hw         Hardware
	dev        Peripherals
	logger     *slog.Logger
	controller *strip.Controller
	monitor    *watchdog.Monitor
	guard      OverheatGuard
}

// NewDaemon creates a new irglow daemon.
func NewDaemon(hw Hardware, dev Peripherals, logger *slog.Logger) (*Daemon, error) {
	if err := hw.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid hardware")
	}
	if dev.IR == nil || dev.Strip == nil || dev.Thermometer == nil {
		return nil, errors.New("missing peripheral")
	}

	return &Daemon{
		hw:         hw,
		dev:        dev,
		logger:     logger,
		controller: strip.NewController(hw.Defaults, dev.Locker),
		monitor:    watchdog.NewMonitor(hw.WatchdogTimeout, dev.Watchdog),
		guard:      OverheatGuard{Threshold: hw.OverheatThreshold},
	}, nil
}

// Controller returns the strip controller of the daemon.
func (d *Daemon) Controller() *strip.Controller {
	return d.controller
}

// Run starts the daemon. It blocks until the given context is canceled or a
// task fails. A starved watchdog or, if the hardware halts on sensor errors,
// an unreadable thermometer are fatal.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info(
		"starting strip",
		"pixels", d.hw.StripSize,
		"frame_period", d.hw.FramePeriod,
		"ir_address", d.hw.IRAddress,
		"command_table", d.hw.CommandTable)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return every(ctx, d.hw.SamplePeriod, d.sample)
	})
	errg.Go(func() error {
		return every(ctx, d.hw.FramePeriod, d.frame)
	})
	errg.Go(func() error {
		return d.renderLoop(ctx)
	})
	errg.Go(func() error {
		err := d.monitor.Run(ctx)
		if errors.Is(err, watchdog.ErrStarved) {
			d.logger.Error(
				"frame task starved, resetting",
				"timeout", d.monitor.Timeout())
		}
		return err
	})

	return errg.Wait()
}

// every calls f once per period until ctx is done.
func every(ctx context.Context, period time.Duration, f func()) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f()
		}
	}
}

// sample is the sample task. It applies at most one remote command.
func (d *Daemon) sample() {
	f, ok, err := d.dev.IR.Poll()
	if err != nil {
		d.logger.Debug("dropping malformed IR frame", "error", err)
		return
	}
	if !ok || f.Address != d.hw.IRAddress {
		return
	}

	cmd := d.hw.CommandTable.Decode(f.Command)
	d.controller.Apply(cmd)

	d.logger.Debug(
		"applied command",
		"code", f.Command,
		"command", commandString(cmd),
		"repeat", f.Repeat)
}

// frame is the frame task. The watchdog is fed in the same critical section
// that advances the frame, so liveness follows the animation clock.
func (d *Daemon) frame() {
	d.controller.Lock(func(s *strip.State) {
		strip.AdvanceFrame(s)
		d.monitor.Feed()
	})
}

func (d *Daemon) renderLoop(ctx context.Context) error {
	renderer := strip.NewRenderer(d.hw.RendererConfig())

	var pace <-chan time.Time
	if d.hw.RenderInterval > 0 {
		ticker := time.NewTicker(d.hw.RenderInterval)
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		if err := d.render(renderer); err != nil {
			return err
		}

		if pace == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				runtime.Gosched()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pace:
		}
	}
}

// render runs one iteration of the render loop.
func (d *Daemon) render(renderer *strip.Renderer) error {
	state := d.controller.Snapshot()

	frame := renderer.Render(state)
	if frame.BurnOut {
		d.controller.BurnOut()
	}

	if err := d.dev.Strip.WriteColors(frame.Pixels); err != nil {
		// The next iteration overwrites the strip anyway.
		d.logger.Warn("failed to write strip", "error", err)
	}

	raw, err := d.dev.Thermometer.ReadRawTemperature()
	if err != nil {
		if d.hw.HaltOnSensorError {
			d.logger.Error("cannot read temperature, halting", "error", err)
			return fmt.Errorf("%w: %v", ErrSensorFailure, err)
		}
		d.logger.Warn("cannot read temperature", "error", err)
		return nil
	}

	if d.guard.Check(raw) {
		if !state.Overheat {
			d.logger.Error(
				"strip overheated",
				"raw_temperature", raw,
				"threshold", d.guard.Threshold)
		}
		d.controller.ApplyOverheat()
	}

	return nil
}

func commandString(cmd strip.Command) string {
	if s, ok := cmd.(fmt.Stringer); ok {
		return s.String()
	}
	return cmd.Type().String()
}
