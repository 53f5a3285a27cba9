// Package bridge implements the strip peripherals on the host over a serial
// link to the bridge firmware.
package bridge

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/irglow"
	"libdb.so/irglow/internal/led"
	"libdb.so/irglow/ledserial"
)

var (
	// ErrNoTemperature is returned when no fresh temperature sample has been
	// received from the device.
	ErrNoTemperature = errors.New("no temperature sample from device")
	// ErrDevicePanicked is returned by Run when the device reports that it
	// cannot recover.
	ErrDevicePanicked = errors.New("bridge device panicked")
	// ErrDisconnected is returned by Run when the serial port is closed by
	// the device side.
	ErrDisconnected = errors.New("bridge device disconnected")
)

// Config is the configuration of a Bridge.
type Config struct {
	// NumLEDs is the number of LEDs on the strip.
	NumLEDs int
	// SensorTimeout is how long a temperature sample stays valid. It is also
	// how long ReadRawTemperature waits for the first sample.
	SensorTimeout time.Duration
	// QueueSize is the number of IR frames buffered between two polls.
	QueueSize int
}

// Bridge is the host side of the serial link. It implements all the
// peripherals of an irglow.Daemon.
type Bridge struct {
	cfg    Config
	port   io.ReadWriteCloser
	logger *slog.Logger

	writeMu sync.Mutex

	frames chan irglow.IRFrame
	feeds  chan struct{}

	temperature   atomic.Int64 // raw sample
	sampledAt     atomic.Int64 // unix nanoseconds, 0 if never
	firstSample   chan struct{}
	firstSampleMu sync.Once
	started       time.Time
}

var (
	_ irglow.IRReceiver  = (*Bridge)(nil)
	_ irglow.StripWriter = (*Bridge)(nil)
	_ irglow.Thermometer = (*Bridge)(nil)
)

// Open opens the serial device and initializes the strip.
func Open(device string, baud int, cfg Config, logger *slog.Logger) (*Bridge, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to reset read timeout")
	}

	b, err := New(port, cfg, logger)
	if err != nil {
		port.Close()
		return nil, err
	}

	return b, nil
}

// New creates a bridge over an already opened port and initializes the strip.
func New(port io.ReadWriteCloser, cfg Config, logger *slog.Logger) (*Bridge, error) {
	if cfg.NumLEDs < 1 || cfg.NumLEDs > 0xFFFF {
		return nil, errors.Errorf("invalid number of LEDs: %d", cfg.NumLEDs)
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 8
	}

	b := &Bridge{
		cfg:         cfg,
		port:        port,
		logger:      logger,
		frames:      make(chan irglow.IRFrame, cfg.QueueSize),
		feeds:       make(chan struct{}, 1),
		firstSample: make(chan struct{}),
		started:     time.Now(),
	}

	logger.Debug("sending initialize packet", "leds", cfg.NumLEDs)
	if err := b.writePacket(ledserial.InitializePacket{NumLEDs: uint16(cfg.NumLEDs)}); err != nil {
		return nil, errors.Wrap(err, "failed to initialize LEDs")
	}

	return b, nil
}

// Run reads packets from the device until ctx is canceled, the port fails or
// the device panics. The port is closed when Run returns.
func (b *Bridge) Run(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		b.logger.Debug("closing serial port")
		if err := b.port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})
	errg.Go(func() error {
		return b.readPackets(ctx)
	})
	errg.Go(func() error {
		return b.feedWatchdog(ctx)
	})
	return errg.Wait()
}

func (b *Bridge) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(b.port)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The port has no read timeout, so EOF means the device is gone.
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return errors.Wrap(ErrDisconnected, err.Error())
			}
			return errors.Wrap(err, "failed to read packet")
		}

		if err := b.handlePacket(p); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func (b *Bridge) handlePacket(p ledserial.OutgoingPacket) error {
	switch p := p.(type) {
	case ledserial.IRPacket:
		f := irglow.IRFrame{
			Address: p.Address,
			Command: p.Command,
			Repeat:  p.Repeat,
		}
		select {
		case b.frames <- f:
		default:
			b.logger.Debug("IR queue full, dropping frame", "command", p.Command)
		}

	case ledserial.TemperaturePacket:
		b.temperature.Store(int64(p.Raw))
		b.sampledAt.Store(time.Now().UnixNano())
		b.firstSampleMu.Do(func() { close(b.firstSample) })

	case ledserial.AckPacket:
		b.logger.Debug(
			"received ack packet from device",
			"acked_for", p.IncomingPacketType)

	case ledserial.LogPacket:
		b.logger.Info(
			"received log packet from device",
			"message", p.Message)

	case ledserial.ErrorPacket:
		b.logger.Warn(
			"received error packet from device",
			"message", p.Message)

	case ledserial.PanicPacket:
		b.logger.Error(
			"device unrecoverably panicked",
			"message", p.Message)
		return ErrDevicePanicked

	default:
		return errors.Errorf("received unknown packet from device: %s", p.Type())
	}

	return nil
}

// Poll returns the oldest queued IR frame. It never blocks.
func (b *Bridge) Poll() (irglow.IRFrame, bool, error) {
	select {
	case f := <-b.frames:
		return f, true, nil
	default:
		return irglow.IRFrame{}, false, nil
	}
}

// WriteColors sends the pixels to the device.
func (b *Bridge) WriteColors(leds led.LEDs) error {
	if len(leds) != b.cfg.NumLEDs {
		return errors.Errorf("got %d pixels for %d LEDs", len(leds), b.cfg.NumLEDs)
	}
	return b.writePacket(ledserial.SetPacket{Pix: leds.AsPixels()})
}

// Feed feeds the device's hardware watchdog. It never blocks: the feed packet
// is sent by Run, and feeds arriving before it is sent are coalesced.
func (b *Bridge) Feed() {
	select {
	case b.feeds <- struct{}{}:
	default:
	}
}

func (b *Bridge) feedWatchdog(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.feeds:
			if err := b.writePacket(ledserial.FeedPacket{}); err != nil {
				b.logger.Warn("failed to feed device watchdog", "error", err)
			}
		}
	}
}

// ReadRawTemperature returns the latest temperature sample. Before the first
// sample arrives it waits up to SensorTimeout since the bridge was created.
func (b *Bridge) ReadRawTemperature() (int, error) {
	select {
	case <-b.firstSample:
	default:
		wait := b.cfg.SensorTimeout - time.Since(b.started)
		if wait <= 0 {
			return 0, ErrNoTemperature
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-b.firstSample:
		case <-timer.C:
			return 0, ErrNoTemperature
		}
	}

	sampledAt := time.Unix(0, b.sampledAt.Load())
	if age := time.Since(sampledAt); b.cfg.SensorTimeout > 0 && age > b.cfg.SensorTimeout {
		return 0, errors.Wrapf(ErrNoTemperature, "last sample is %s old", age.Round(time.Millisecond))
	}

	return int(b.temperature.Load()), nil
}

func (b *Bridge) writePacket(p ledserial.IncomingPacket) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if err := ledserial.WriteIncomingPacket(b.port, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}
