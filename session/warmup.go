package session

// Bluetooth microphones routinely deliver pure silence for a second or two
// after opening while the codec renegotiates. The warmup protocol separates
// that startup silence from a dead device: every no-signal observation
// before the first real signal re-arms a fresh deadline, so only sustained
// failure times out. Non-Bluetooth devices never leave WarmupNotWaiting.

import "time"

type WarmupState int

const (
	WarmupNotWaiting WarmupState = iota
	WarmupWaiting
	WarmupConfirmed
)

func (s WarmupState) String() string {
	switch s {
	case WarmupNotWaiting:
		return "not-waiting"
	case WarmupWaiting:
		return "waiting"
	case WarmupConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// enterWaitingLocked starts (or restarts, on a device switch) the warmup
// protocol for the current device.
func (h *Helper) enterWaitingLocked() {
	h.warmState = WarmupWaiting
	h.armWarmupLocked()
	h.notifyWaiting(true)
}

// armWarmupLocked schedules a fresh full deadline, invalidating any
// previous one. The sequence number keeps an already-expired timer callback
// from acting on a later arm.
func (h *Helper) armWarmupLocked() {
	if h.warmTimer != nil {
		h.warmTimer.Stop()
	}
	h.warmSeq++
	seq := h.warmSeq
	h.warmTimer = time.AfterFunc(h.warmupTimeout, func() { h.warmupExpired(seq) })
}

func (h *Helper) warmupExpired(seq int) {
	h.mu.Lock()
	if seq != h.warmSeq || h.warmState != WarmupWaiting {
		h.mu.Unlock()
		return
	}
	// Fires at most once per arm: the timer is spent and nothing re-arms
	// it until another no-signal observation arrives. The session is left
	// open; the owning workflow decides whether to abort.
	h.warmTimer = nil
	h.mu.Unlock()

	h.postError(ErrWarmupTimeout)
}

// signalLocked handles a "signal present" observation.
func (h *Helper) signalLocked() {
	if h.warmState != WarmupWaiting {
		return
	}
	h.stopWarmupTimerLocked()
	h.warmState = WarmupConfirmed
	h.notifyWaiting(false)
}

// noSignalLocked handles a silence observation. Once the signal has been
// confirmed this is ordinary speech silence and must not re-enter waiting.
func (h *Helper) noSignalLocked() {
	if h.warmState != WarmupWaiting {
		return
	}
	h.armWarmupLocked()
}

// exitWarmupLocked leaves the protocol entirely (device switched away from
// Bluetooth).
func (h *Helper) exitWarmupLocked() {
	wasWaiting := h.warmState == WarmupWaiting
	h.stopWarmupTimerLocked()
	h.warmState = WarmupNotWaiting
	if wasWaiting {
		h.notifyWaiting(false)
	}
}

// stopWarmupLocked shuts the protocol down for session teardown without
// notifying anyone.
func (h *Helper) stopWarmupLocked() {
	h.stopWarmupTimerLocked()
	h.warmState = WarmupNotWaiting
}

func (h *Helper) stopWarmupTimerLocked() {
	if h.warmTimer != nil {
		h.warmTimer.Stop()
		h.warmTimer = nil
	}
	h.warmSeq++
}

func (h *Helper) notifyWaiting(waiting bool) {
	if h.hooks.OnWarmupWaiting == nil {
		return
	}
	h.loop.Post(func() { h.hooks.OnWarmupWaiting(waiting) })
}
