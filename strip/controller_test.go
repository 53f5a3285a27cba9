package strip

import (
	"math"
	"math/rand"
	"sync"
	"testing"
)

var testDefaults = Defaults{
	Power:         true,
	Mode:          Fire,
	Color:         IndexedColor{Code: 0, Luma: 0},
	OverheatColor: Red,
}

func TestControllerStartup(t *testing.T) {
	c := NewController(testDefaults, nil)

	want := State{
		Power:         true,
		Mode:          Fire,
		Color:         IndexedColor{Code: 0, Luma: 0},
		OverheatColor: Off,
	}
	if got := c.Snapshot(); got != want {
		t.Fatalf("startup state = %+v, want %+v", got, want)
	}
}

func TestLumaSaturates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := NewController(testDefaults, nil)

	model := 0
	for i := 0; i < 10_000; i++ {
		if rng.Intn(2) == 0 {
			c.Apply(LumaUp{})
			model = min(model+1, MaxLuma)
		} else {
			c.Apply(LumaDown{})
			model = max(model-1, 0)
		}

		luma := c.Snapshot().Color.Luma
		if luma > MaxLuma {
			t.Fatalf("step %d: luma %d out of range", i, luma)
		}
		if int(luma) != model {
			t.Fatalf("step %d: luma %d, want %d", i, luma, model)
		}
	}
}

func TestLumaBounds(t *testing.T) {
	c := NewController(testDefaults, nil)

	c.Apply(LumaDown{})
	if luma := c.Snapshot().Color.Luma; luma != 0 {
		t.Fatalf("luma below 0 = %d", luma)
	}

	for i := 0; i < 10; i++ {
		c.Apply(LumaUp{})
	}
	if luma := c.Snapshot().Color.Luma; luma != MaxLuma {
		t.Fatalf("luma after 10 ups = %d", luma)
	}
}

func TestCorruptLumaPanics(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Lock(func(s *State) { s.Color.Luma = 9 })

	defer func() {
		if recover() == nil {
			t.Fatal("corrupt luma did not panic")
		}
		// The critical section must be released by the panic.
		c.Snapshot()
	}()
	c.Apply(LumaUp{})
}

func TestPowerCycleResets(t *testing.T) {
	commands := []Command{
		SetMode{Mode: Strobe},
		SetColor{Code: 9},
		LumaUp{},
		LumaUp{},
		PowerOff{},
		SetMode{Mode: Smooth},
	}

	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 100; trial++ {
		c := NewController(testDefaults, nil)
		for i := rng.Intn(20); i > 0; i-- {
			c.Apply(commands[rng.Intn(len(commands))])
		}
		if rng.Intn(2) == 0 {
			c.ApplyOverheat()
		}

		c.Apply(PowerOff{})
		if s := c.Snapshot(); s.Power {
			t.Fatal("power still on after PowerOff")
		}
		c.Apply(PowerOn{})

		s := c.Snapshot()
		if !s.Power || s.Mode != testDefaults.Mode || s.Color != testDefaults.Color || s.Overheat {
			t.Fatalf("trial %d: state after power cycle = %+v", trial, s)
		}
	}
}

func TestPowerOffKeepsLook(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Apply(SetMode{Mode: Flash})
	c.Apply(SetColor{Code: 3})
	c.Apply(PowerOff{})

	s := c.Snapshot()
	if s.Mode != Flash || s.Color.Code != 3 {
		t.Fatalf("PowerOff changed the look: %+v", s)
	}
}

func TestPowerOnIdempotent(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Apply(PowerOn{})
	once := c.Snapshot()
	c.Apply(PowerOn{})
	if twice := c.Snapshot(); once != twice {
		t.Fatalf("second PowerOn changed state: %+v != %+v", twice, once)
	}
}

func TestSetModeIsPending(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Apply(PowerOff{})
	c.ApplyOverheat()
	c.Apply(SetMode{Mode: Strobe})
	c.Apply(SetColor{Code: 200})

	s := c.Snapshot()
	if s.Mode != Strobe {
		t.Errorf("mode = %s, want strobe", s.Mode)
	}
	if s.Color.Code != 200 {
		t.Errorf("color code = %d, want 200", s.Color.Code)
	}
}

func TestOverheatIsSticky(t *testing.T) {
	commands := []Command{
		PowerOff{},
		SetMode{Mode: Static},
		SetMode{Mode: Overheat},
		LumaUp{},
		LumaDown{},
		SetColor{Code: 4},
	}

	c := NewController(testDefaults, nil)
	c.ApplyOverheat()

	for _, cmd := range commands {
		c.Apply(cmd)
		c.AdvanceFrame()
		c.BurnOut()
		if !c.Snapshot().Overheat {
			t.Fatalf("%s cleared the overheat flag", cmd.Type())
		}
	}

	c.Apply(PowerOn{})
	if s := c.Snapshot(); s.Overheat || !s.OverheatColor.IsOff() {
		t.Fatalf("PowerOn did not clear the overheat state: %+v", s)
	}
}

func TestOverheatArmsOnce(t *testing.T) {
	c := NewController(testDefaults, nil)

	c.ApplyOverheat()
	if s := c.Snapshot(); s.OverheatColor != Red {
		t.Fatalf("overheat color = %s, want %s", s.OverheatColor, Red)
	}

	c.BurnOut()
	c.ApplyOverheat()
	if s := c.Snapshot(); !s.OverheatColor.IsOff() {
		t.Fatalf("burnt out overheat color was re-armed: %s", s.OverheatColor)
	}
}

func TestBurnOutNeedsOverheat(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.BurnOut()
	c.ApplyOverheat()
	if s := c.Snapshot(); s.OverheatColor != Red {
		t.Fatalf("overheat color = %s, want %s", s.OverheatColor, Red)
	}
}

func TestFrameWraps(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Lock(func(s *State) { s.Frame = math.MaxUint32 })
	c.AdvanceFrame()
	if f := c.Snapshot().Frame; f != 0 {
		t.Fatalf("frame after wrap = %d", f)
	}
}

// TestSnapshotIsConsistent checks that snapshots never mix fields of two
// updates. The frame task keeps Color.Code equal to the low byte of Frame in
// one critical section while the sample task changes the other fields.
func TestSnapshotIsConsistent(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Lock(func(s *State) { s.Color.Code = uint8(s.Frame) })

	const iterations = 20_000
	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			c.Lock(func(s *State) {
				AdvanceFrame(s)
				c.ApplyLocked(s, SetColor{Code: uint8(s.Frame)})
			})
		}
	}()
	go func() {
		defer wg.Done()
		commands := []Command{LumaUp{}, LumaDown{}, SetMode{Mode: Flash}, PowerOff{}, SetMode{Mode: Fade}}
		for i := 0; i < iterations; i++ {
			c.Apply(commands[i%len(commands)])
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		s := c.Snapshot()
		if s.Color.Code != uint8(s.Frame) {
			t.Fatalf("torn snapshot: code %d, frame %d", s.Color.Code, s.Frame)
		}
		if s.Color.Luma > MaxLuma {
			t.Fatalf("torn snapshot: luma %d", s.Color.Luma)
		}

		select {
		case <-done:
			if f := c.Snapshot().Frame; f != iterations {
				t.Fatalf("frame = %d, want %d", f, iterations)
			}
			return
		default:
		}
	}
}

func TestIgnoreKeepsState(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Apply(SetColor{Code: 5})
	before := c.Snapshot()
	c.Apply(Ignore{})
	if after := c.Snapshot(); after != before {
		t.Fatalf("Ignore changed state: %+v != %+v", after, before)
	}
}

func TestOverheatRecordsFrame(t *testing.T) {
	c := NewController(testDefaults, nil)
	c.Lock(func(s *State) { s.Frame = 12 })
	c.ApplyOverheat()
	c.AdvanceFrame()
	c.ApplyOverheat()

	if f := c.Snapshot().OverheatFrame; f != 12 {
		t.Fatalf("overheat frame = %d, want 12", f)
	}
}
