package hotkey

import (
	"errors"
	"sync"
)

var errClaimed = errors.New("binding already claimed by another application")

// FakeBackend records binds and lets tests fire presses directly.
type FakeBackend struct {
	mu      sync.Mutex
	binds   map[Binding]func()
	nBinds  int
	FailFor map[Binding]bool
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{binds: make(map[Binding]func())}
}

func (f *FakeBackend) Bind(b Binding, press func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailFor[b] {
		return nil, errClaimed
	}
	f.binds[b] = press
	f.nBinds++
	return func() {
		f.mu.Lock()
		delete(f.binds, b)
		f.mu.Unlock()
	}, nil
}

// Press simulates the OS delivering a press of b.
func (f *FakeBackend) Press(b Binding) {
	f.mu.Lock()
	press := f.binds[b]
	f.mu.Unlock()
	if press != nil {
		press()
	}
}

// Bound reports whether b currently has an OS-level registration.
func (f *FakeBackend) Bound(b Binding) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binds[b] != nil
}

// BindCount returns how many Bind calls have succeeded in total.
func (f *FakeBackend) BindCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nBinds
}
