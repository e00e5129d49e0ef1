package vad

import "testing"

func feedN(m *Monitor, speech bool, n int) QuietEvent {
	var last QuietEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestQuietWarnAfter8s(t *testing.T) {
	m := NewMonitor(false)
	// 79 ticks of silence — no warning yet
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != QuietNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	// 80th tick triggers warning (8s)
	if ev := m.Tick(false); ev != QuietWarn {
		t.Fatalf("expected QuietWarn at tick 80, got %d", ev)
	}
}

func TestQuietWarnClearsOnSpeech(t *testing.T) {
	m := NewMonitor(false)
	feedN(m, false, 80) // triggers warn

	// Sustained speech clears warning (need 25% of 80-tick window)
	for i := 0; i < 80; i++ {
		if ev := m.Tick(true); ev == QuietWarnClear {
			return
		}
	}
	t.Fatal("expected QuietWarnClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := NewMonitor(false)
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == QuietWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestAutoStopAfter30s(t *testing.T) {
	m := NewMonitor(true)
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == QuietAutoStop {
			if i < 299 {
				t.Fatalf("auto-stop too early at tick %d", i)
			}
			return
		}
	}
	t.Fatal("expected QuietAutoStop")
}

func TestNoAutoStopWithoutFlag(t *testing.T) {
	m := NewMonitor(false)
	for i := 0; i < 600; i++ {
		if ev := m.Tick(false); ev == QuietAutoStop {
			t.Fatal("auto-stop fired with autoStop disabled")
		}
	}
}

func TestRepeatWarn(t *testing.T) {
	m := NewMonitor(true)
	feedN(m, false, 80) // warn at tick 80
	var gotRepeat bool
	for i := 0; i < 100; i++ {
		if ev := m.Tick(false); ev == QuietRepeat {
			gotRepeat = true
			break
		}
	}
	if !gotRepeat {
		t.Fatal("expected QuietRepeat with autoStop mode")
	}
}

func TestMonitorReset(t *testing.T) {
	m := NewMonitor(false)
	feedN(m, false, 80)
	m.Reset()
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != QuietNone {
			t.Fatalf("event %d after reset at tick %d", ev, i)
		}
	}
	if ev := m.Tick(false); ev != QuietWarn {
		t.Fatalf("expected fresh QuietWarn after reset, got %d", ev)
	}
}
