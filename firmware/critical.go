package firmware

import (
	"runtime/interrupt"
	"sync"
)

// Critical runs f with interrupts disabled.
func Critical(f func()) {
	state := interrupt.Disable()
	f()
	interrupt.Restore(state)
}

// InterruptLocker is a sync.Locker that disables interrupts while held. It
// must not be locked recursively.
type InterruptLocker struct {
	state interrupt.State
}

var _ sync.Locker = (*InterruptLocker)(nil)

func (l *InterruptLocker) Lock() {
	l.state = interrupt.Disable()
}

func (l *InterruptLocker) Unlock() {
	interrupt.Restore(l.state)
}
