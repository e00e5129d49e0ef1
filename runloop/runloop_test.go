package runloop

import (
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New()
	go l.Run()
	t.Cleanup(l.Stop)
	return l
}

func TestPostRunsInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Do(func() {})

	if len(got) != 10 {
		t.Fatalf("ran %d of 10 posted funcs", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: got %d", i, v)
		}
	}
}

func TestDoWaits(t *testing.T) {
	l := startLoop(t)

	ran := false
	l.Do(func() { ran = true })
	if !ran {
		t.Fatal("Do returned before fn ran")
	}
}

func TestAfterFires(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestStoppedTimerNeverFires(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{}, 1)
	var tm *Timer
	l.Do(func() {
		tm = l.After(20*time.Millisecond, func() { fired <- struct{}{} })
	})
	l.Do(func() { tm.Stop() })

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestStopLateCancelsEvenAfterExpiry(t *testing.T) {
	l := New()
	fired := make(chan struct{}, 1)

	// Expire the timer while the loop is not running, then stop it before
	// the loop gets a chance to execute the posted callback.
	tm := l.After(time.Millisecond, func() { fired <- struct{}{} })
	time.Sleep(20 * time.Millisecond)
	tm.Stop()

	go l.Run()
	defer l.Stop()
	l.Do(func() {})

	select {
	case <-fired:
		t.Fatal("timer fired after Stop")
	default:
	}
}
