package firmware

import (
	"image/color"
	"machine"
	"time"

	"libdb.so/irglow"
	"libdb.so/irglow/internal/led"
	"tinygo.org/x/drivers/irremote"
	"tinygo.org/x/drivers/ws2812"
)

// IRQueueSize is the number of decoded frames kept between two polls.
const IRQueueSize = 8

// IRReceiver queues frames decoded by the irremote driver. The driver calls
// back from the pin interrupt, so the queue is a fixed ring guarded by
// disabling interrupts.
type IRReceiver struct {
	rx      irremote.ReceiverDevice
	frames  [IRQueueSize]irglow.IRFrame
	head    int
	n       int
	dropped uint32
}

var _ irglow.IRReceiver = (*IRReceiver)(nil)

// NewIRReceiver configures the IR receiver on the given pin.
func NewIRReceiver(pin machine.Pin) *IRReceiver {
	r := &IRReceiver{rx: irremote.NewReceiver(pin)}
	r.rx.Configure()
	r.rx.SetCommandHandler(r.push)
	return r
}

func (r *IRReceiver) push(data irremote.Data) {
	if r.n == len(r.frames) {
		r.dropped++
		return
	}
	r.frames[(r.head+r.n)%len(r.frames)] = irglow.IRFrame{
		Address: data.Address,
		Command: uint8(data.Command),
		Repeat:  data.Flags&irremote.DataFlagIsRepeat != 0,
	}
	r.n++
}

// Poll implements irglow.IRReceiver. It never blocks.
func (r *IRReceiver) Poll() (f irglow.IRFrame, ok bool, err error) {
	Critical(func() {
		if r.n == 0 {
			return
		}
		f = r.frames[r.head]
		r.head = (r.head + 1) % len(r.frames)
		r.n--
		ok = true
	})
	return f, ok, nil
}

// Dropped returns the number of frames dropped because the queue was full.
func (r *IRReceiver) Dropped() (n uint32) {
	Critical(func() { n = r.dropped })
	return n
}

// Strip is a ws2812 strip.
type Strip struct {
	dev ws2812.Device
	buf []color.RGBA
}

var _ irglow.StripWriter = (*Strip)(nil)

// NewStrip configures a ws2812 strip on the given pin.
func NewStrip(pin machine.Pin) *Strip {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Strip{dev: ws2812.New(pin)}
}

// WriteColors implements irglow.StripWriter.
func (s *Strip) WriteColors(leds led.LEDs) (err error) {
	s.buf = leds.AppendRGBA(s.buf[:0])
	Critical(func() { err = s.dev.WriteColors(s.buf) })
	return err
}

// WritePixels writes pixels packed as R, G, B bytes, as sent by the host.
func (s *Strip) WritePixels(pix []byte) {
	Critical(func() {
		for i := 0; i+2 < len(pix); i += 3 {
			s.dev.WriteByte(pix[i+1])
			s.dev.WriteByte(pix[i])
			s.dev.WriteByte(pix[i+2])
		}
	})
}

// Thermometer reads the strip thermistor through the ADC.
type Thermometer struct {
	adc machine.ADC
}

var _ irglow.Thermometer = (*Thermometer)(nil)

// NewThermometer configures the ADC on the given pin.
func NewThermometer(pin machine.Pin) *Thermometer {
	machine.InitADC()
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})
	return &Thermometer{adc: adc}
}

// ReadRawTemperature implements irglow.Thermometer. The reading is a 12-bit
// sample.
func (t *Thermometer) ReadRawTemperature() (int, error) {
	return int(t.adc.Get() >> 4), nil
}

// Watchdog is the hardware watchdog.
type Watchdog struct{}

// StartWatchdog starts the hardware watchdog. The device resets if it is not
// fed within timeout.
func StartWatchdog(timeout time.Duration) (Watchdog, error) {
	err := machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: uint32(timeout.Milliseconds()),
	})
	if err != nil {
		return Watchdog{}, err
	}
	if err := machine.Watchdog.Start(); err != nil {
		return Watchdog{}, err
	}
	return Watchdog{}, nil
}

// Feed implements watchdog.Feeder.
func (Watchdog) Feed() {
	machine.Watchdog.Update()
}

// Halt stops the device until the hardware watchdog resets it.
func Halt() {
	for {
		time.Sleep(time.Second)
	}
}
