// Package watchdog implements a liveness monitor that must be fed at least
// once per timeout window.
package watchdog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrStarved is returned by Monitor.Run when the monitor was not fed within
// its timeout.
var ErrStarved = errors.New("watchdog starved")

// Feeder is a hardware watchdog. Feed is fire-and-forget.
type Feeder interface {
	Feed()
}

// Monitor is a software watchdog. It also forwards every feed to an optional
// hardware Feeder, so the device and the host watch the same liveness signal.
type Monitor struct {
	timeout time.Duration
	next    Feeder
	last    atomic.Int64 // unix nanoseconds
	now     func() time.Time
}

// NewMonitor creates a monitor that starves after timeout without a feed.
// next may be nil.
func NewMonitor(timeout time.Duration, next Feeder) *Monitor {
	if timeout <= 0 {
		panic("watchdog: timeout must be positive")
	}
	m := &Monitor{
		timeout: timeout,
		next:    next,
		now:     time.Now,
	}
	m.last.Store(m.now().UnixNano())
	return m
}

// Timeout returns the timeout window of the monitor.
func (m *Monitor) Timeout() time.Duration {
	return m.timeout
}

// Feed records that the system is alive. It is safe to call from any
// goroutine and never blocks.
func (m *Monitor) Feed() {
	m.last.Store(m.now().UnixNano())
	if m.next != nil {
		m.next.Feed()
	}
}

// Expired returns true if the last feed is older than the timeout.
func (m *Monitor) Expired() bool {
	last := time.Unix(0, m.last.Load())
	return m.now().Sub(last) > m.timeout
}

// Run checks the monitor a few times per timeout window. It returns
// ErrStarved once the monitor expires, or the context error once ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.timeout / 4)
	defer ticker.Stop()

	// The window starts now, not at construction.
	m.last.Store(m.now().UnixNano())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if m.Expired() {
				return ErrStarved
			}
		}
	}
}
