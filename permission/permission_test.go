package permission

import (
	"testing"
	"time"

	"voco/runloop"
)

func TestStatic(t *testing.T) {
	s := NewStatic(false)
	if s.Authorized() {
		t.Fatal("authorized before grant")
	}
	s.Request()
	s.Request()
	if s.Requests() != 2 {
		t.Fatalf("Requests = %d", s.Requests())
	}
	s.SetAuthorized(true)
	if !s.Authorized() {
		t.Fatal("not authorized after grant")
	}
}

func TestPollerFiresOnceOnGrant(t *testing.T) {
	loop := runloop.New()
	go loop.Run()
	defer loop.Stop()

	inner := NewStatic(false)
	granted := make(chan struct{}, 8)
	p := NewPoller(loop, inner, 100*time.Millisecond, func() { granted <- struct{}{} })
	defer p.Close()

	p.Request()
	p.Request() // second request does not start a second poll

	select {
	case <-granted:
		t.Fatal("granted before authorization")
	case <-time.After(250 * time.Millisecond):
	}

	inner.SetAuthorized(true)
	select {
	case <-granted:
	case <-time.After(2 * time.Second):
		t.Fatal("granted never fired")
	}

	select {
	case <-granted:
		t.Fatal("granted fired twice")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestPollerCloseStopsPolling(t *testing.T) {
	loop := runloop.New()
	go loop.Run()
	defer loop.Stop()

	inner := NewStatic(false)
	granted := make(chan struct{}, 1)
	p := NewPoller(loop, inner, 100*time.Millisecond, func() { granted <- struct{}{} })

	p.Request()
	p.Close()
	inner.SetAuthorized(true)

	select {
	case <-granted:
		t.Fatal("granted fired after Close")
	case <-time.After(300 * time.Millisecond):
	}
}
