// Package permission answers one question before a workflow may open the
// microphone: has the OS granted capture access. On platforms without a
// permission model the static signal always says yes.
package permission

import (
	"sync"
	"time"

	"voco/runloop"
)

// Signal reports capture authorization. Request kicks off the OS prompt
// when access has not been decided yet; it must not block.
type Signal interface {
	Authorized() bool
	Request()
}

// Static is a fixed answer, used on platforms without a microphone
// permission model and in tests.
type Static struct {
	mu    sync.Mutex
	ok    bool
	asked int
}

func NewStatic(ok bool) *Static { return &Static{ok: ok} }

func (s *Static) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ok
}

func (s *Static) Request() {
	s.mu.Lock()
	s.asked++
	s.mu.Unlock()
}

// SetAuthorized flips the answer, simulating the user granting access.
func (s *Static) SetAuthorized(ok bool) {
	s.mu.Lock()
	s.ok = ok
	s.mu.Unlock()
}

func (s *Static) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asked
}

// Poller wraps a Signal whose answer can change outside our control (the
// user flipping a system toggle). After Request it rechecks on an interval
// and posts granted exactly once to the loop.
type Poller struct {
	loop     *runloop.Loop
	inner    Signal
	interval time.Duration
	granted  func()

	mu      sync.Mutex
	polling bool
	stop    chan struct{}
}

func NewPoller(loop *runloop.Loop, inner Signal, interval time.Duration, granted func()) *Poller {
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return &Poller{loop: loop, inner: inner, interval: interval, granted: granted}
}

func (p *Poller) Authorized() bool { return p.inner.Authorized() }

func (p *Poller) Request() {
	p.inner.Request()

	p.mu.Lock()
	if p.polling {
		p.mu.Unlock()
		return
	}
	p.polling = true
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	go p.poll(stop)
}

func (p *Poller) poll(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !p.inner.Authorized() {
				continue
			}
			p.mu.Lock()
			p.polling = false
			p.mu.Unlock()
			if p.granted != nil {
				p.loop.Post(p.granted)
			}
			return
		}
	}
}

// Close stops any in-flight poll.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.polling {
		close(p.stop)
		p.polling = false
	}
	p.mu.Unlock()
}
