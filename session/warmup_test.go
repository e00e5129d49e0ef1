package session

import (
	"errors"
	"testing"
	"time"

	"voco/audio"
)

var btDevice = audio.DeviceInfo{ID: "bt1", Name: "AirPods Pro", Bluetooth: true}
var wiredDevice = audio.DeviceInfo{ID: "mic1", Name: "Built-in Microphone"}

func (h *harness) startBT(t *testing.T, timeout time.Duration) *audio.FakeSession {
	t.Helper()
	h.helper.SetWarmupTimeout(timeout)
	return h.start(t, "bt1")
}

func (h *harness) expectWaiting(t *testing.T, want bool) {
	t.Helper()
	select {
	case got := <-h.waiting:
		if got != want {
			t.Fatalf("warmup waiting = %v, want %v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no warmup notification (want waiting=%v)", want)
	}
}

func TestNonBluetoothNeverWaits(t *testing.T) {
	h := newHarness(t, wiredDevice)
	sess := h.start(t, "mic1")

	for i := 0; i < 5; i++ {
		sess.EmitEvent(audio.Event{Kind: audio.EventNoSignal})
	}
	h.loop.Do(func() {})
	if got := h.helper.Warmup(); got != WarmupNotWaiting {
		t.Fatalf("warmup state = %v, want not-waiting", got)
	}
	select {
	case err := <-h.errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBluetoothEntersWaitingOnStart(t *testing.T) {
	h := newHarness(t, btDevice)
	h.startBT(t, time.Minute)
	h.expectWaiting(t, true)
	if got := h.helper.Warmup(); got != WarmupWaiting {
		t.Fatalf("warmup state = %v, want waiting", got)
	}
}

// The backend resolves an empty device ID to the real system default, so
// a Bluetooth default microphone still gets the warmup protocol.
func TestBluetoothSystemDefaultEntersWaiting(t *testing.T) {
	h := newHarness(t, btDevice, wiredDevice)
	h.helper.SetWarmupTimeout(time.Minute)
	h.start(t, "")
	h.expectWaiting(t, true)
	if got := h.helper.Device(); !got.Bluetooth {
		t.Fatalf("resolved device = %+v, want the bluetooth default", got)
	}
}

func TestWarmupTimeoutFiresExactlyOnce(t *testing.T) {
	h := newHarness(t, btDevice)
	started := time.Now()
	h.startBT(t, 100*time.Millisecond)

	select {
	case err := <-h.errs:
		if !errors.Is(err, ErrWarmupTimeout) {
			t.Fatalf("got %v, want ErrWarmupTimeout", err)
		}
		if elapsed := time.Since(started); elapsed < 100*time.Millisecond {
			t.Fatalf("timeout fired after %v, want >= 100ms", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("warmup timeout never fired")
	}

	// No second firing without another observation.
	select {
	case err := <-h.errs:
		t.Fatalf("timeout fired twice: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	// The session is not auto-stopped: it keeps accumulating.
	h.actx.LastSession().EmitChunk([]float32{1})
	res, err := h.helper.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.SampleCount != 1 {
		t.Fatal("session stopped accumulating after warmup timeout")
	}
}

// Known edge case: a connected-but-permanently-silent device that emits
// silence observations just under the deadline cadence re-arms forever and
// never times out. That tolerance for intermittent Bluetooth codec
// negotiation is intended behavior, not a bug to fix here.
func TestNoSignalReArmsDeadline(t *testing.T) {
	h := newHarness(t, btDevice)
	sess := h.startBT(t, 150*time.Millisecond)

	// Silence observations every 50ms keep resetting the 150ms deadline,
	// so no timeout may fire while they continue.
	stopFeeding := time.After(400 * time.Millisecond)
feeding:
	for {
		select {
		case err := <-h.errs:
			t.Fatalf("timeout fired while deadline was being re-armed: %v", err)
		case <-stopFeeding:
			break feeding
		case <-time.After(50 * time.Millisecond):
			sess.EmitEvent(audio.Event{Kind: audio.EventNoSignal})
		}
	}

	// After the last observation the full deadline applies once more.
	select {
	case err := <-h.errs:
		if !errors.Is(err, ErrWarmupTimeout) {
			t.Fatalf("got %v, want ErrWarmupTimeout", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired after observations stopped")
	}
}

func TestSignalConfirmsAndCancelsTimeout(t *testing.T) {
	h := newHarness(t, btDevice)
	sess := h.startBT(t, 150*time.Millisecond)
	h.expectWaiting(t, true)

	sess.EmitEvent(audio.Event{Kind: audio.EventSignal})
	h.expectWaiting(t, false)
	if got := h.helper.Warmup(); got != WarmupConfirmed {
		t.Fatalf("warmup state = %v, want confirmed", got)
	}

	// Post-confirmation silence is speech silence: no re-entry, no timeout.
	sess.EmitEvent(audio.Event{Kind: audio.EventNoSignal})
	select {
	case err := <-h.errs:
		t.Fatalf("unexpected error after confirmation: %v", err)
	case w := <-h.waiting:
		t.Fatalf("unexpected waiting notification after confirmation: %v", w)
	case <-time.After(400 * time.Millisecond):
	}
	if got := h.helper.Warmup(); got != WarmupConfirmed {
		t.Fatalf("warmup state = %v, want confirmed to stick", got)
	}
}

func TestStopCancelsWarmupTimer(t *testing.T) {
	h := newHarness(t, btDevice)
	h.startBT(t, 100*time.Millisecond)

	if _, err := h.helper.Stop(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-h.errs:
		t.Fatalf("warmup timer fired after stop: %v", err)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSwitchToBluetoothMidSessionEntersWarmup(t *testing.T) {
	h := newHarness(t, wiredDevice, btDevice)
	sess := h.start(t, "mic1")

	sess.EmitEvent(audio.Event{Kind: audio.EventDeviceChanged, Device: &btDevice})
	h.expectWaiting(t, true)
	waitFor(t, "waiting state", func() bool { return h.helper.Warmup() == WarmupWaiting })

	// Switching away exits the protocol.
	sess.EmitEvent(audio.Event{Kind: audio.EventDeviceChanged, Device: &wiredDevice})
	h.expectWaiting(t, false)
	waitFor(t, "not-waiting state", func() bool { return h.helper.Warmup() == WarmupNotWaiting })
}
