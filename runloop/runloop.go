// Package runloop provides the single cooperative scheduling context that
// owns all workflow orchestration state. Everything that mutates a workflow
// phase, the arbitrator, or the hotkey registry runs as a function posted
// onto one loop, so no two pieces of orchestration logic ever run
// concurrently with each other.
package runloop

import (
	"sync"
	"time"
)

type Loop struct {
	work chan func()
	quit chan struct{}
	once sync.Once
}

func New() *Loop {
	return &Loop{
		work: make(chan func(), 1024),
		quit: make(chan struct{}),
	}
}

// Run processes posted work until Stop is called. It is intended to be the
// body of a single dedicated goroutine.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.work:
			fn()
		case <-l.quit:
			// Drain whatever was already queued, then exit.
			for {
				select {
				case fn := <-l.work:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Post queues fn for execution on the loop. It blocks if the queue is full,
// so producers that may run while the loop itself is busy (audio callbacks)
// should use TryPost instead.
func (l *Loop) Post(fn func()) {
	select {
	case l.work <- fn:
	case <-l.quit:
	}
}

// TryPost queues fn if there is room, and reports whether it was queued.
// Used for high-frequency cosmetic updates (visualization frames) that are
// safe to drop under load.
func (l *Loop) TryPost(fn func()) bool {
	select {
	case l.work <- fn:
		return true
	default:
		return false
	}
}

// Do posts fn and waits for it to complete. Must not be called from the
// loop goroutine itself.
func (l *Loop) Do(fn func()) {
	done := make(chan struct{})
	l.Post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-l.quit:
	}
}

func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
}

// Timer is a cancellable one-shot timer whose callback runs on the loop.
// Stop is expected to be called from the loop goroutine; a timer that has
// been stopped never fires, even if the underlying timer already expired.
type Timer struct {
	mu      sync.Mutex
	stopped bool
	t       *time.Timer
}

// After schedules fn to run on the loop after d.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		l.Post(func() {
			tm.mu.Lock()
			stopped := tm.stopped
			tm.mu.Unlock()
			if !stopped {
				fn()
			}
		})
	})
	return tm
}

func (tm *Timer) Stop() {
	tm.mu.Lock()
	tm.stopped = true
	tm.mu.Unlock()
	tm.t.Stop()
}
