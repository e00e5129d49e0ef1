// Package session owns the lifecycle of one audio-capture session: it
// accumulates samples in arrival order, computes a per-chunk visualization,
// runs the Bluetooth warmup protocol, and guarantees that Stop returns only
// after both consumption loops have drained (cancel then join, never cancel
// and race).
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"voco/audio"
	"voco/runloop"
)

var (
	ErrNotMicrophone = errors.New("session helper captures microphone sources only")
	ErrSessionOpen   = errors.New("a capture session is already open")
	ErrNoSession     = errors.New("no capture session open")
	ErrWarmupTimeout = errors.New("Bluetooth microphone failed to start")
	ErrDeviceGone    = errors.New("capture device disconnected")
	ErrInterrupted   = errors.New("audio capture interrupted")
)

// DefaultWarmupTimeout is how long a Bluetooth device may stay silent
// before the warmup protocol reports a capture failure.
const DefaultWarmupTimeout = 20 * time.Second

type Stats struct {
	SampleCount int
	SampleRate  float64
}

func (s Stats) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(s.SampleCount) / s.SampleRate * float64(time.Second))
}

type Result struct {
	Samples    []float32
	SampleRate float64
	Stats      Stats
}

// Hooks are the helper's channel back to its owning workflow.
//
// OnSamples runs synchronously on the chunk loop in strict arrival order;
// feed the VAD there. The remaining hooks are posted onto the run loop, so
// they observe workflow state safely. OnFrame may be dropped under load.
type Hooks struct {
	OnSamples       func(samples []float32, sampleRate float64)
	OnFrame         func(VizFrame)
	OnWarmupWaiting func(waiting bool)
	OnDeviceChanged func(dev audio.DeviceInfo)
	OnError         func(err error)
}

// Helper bridges the raw capture primitive to a workflow. One helper serves
// one workflow for the process lifetime and is reused across sessions.
type Helper struct {
	loop  *runloop.Loop
	actx  audio.Context
	hooks Hooks

	warmupTimeout time.Duration

	mu         sync.Mutex
	sess       audio.Session
	running    bool
	stopping   bool
	device     audio.DeviceInfo
	samples    []float32
	sampleRate float64
	wg         *sync.WaitGroup

	warmState WarmupState
	warmTimer *time.Timer
	warmSeq   int
}

func New(loop *runloop.Loop, actx audio.Context, hooks Hooks) *Helper {
	return &Helper{
		loop:          loop,
		actx:          actx,
		hooks:         hooks,
		warmupTimeout: DefaultWarmupTimeout,
	}
}

// SetWarmupTimeout overrides the Bluetooth warmup deadline. Call before
// Start.
func (h *Helper) SetWarmupTimeout(d time.Duration) {
	h.mu.Lock()
	h.warmupTimeout = d
	h.mu.Unlock()
}

// Device returns the device currently feeding the session.
func (h *Helper) Device() audio.DeviceInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.device
}

// Warmup reports the current warmup state.
func (h *Helper) Warmup() WarmupState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.warmState
}

// Start resolves the source, opens one capture session, and begins the two
// consumption loops. Only microphone sources are accepted here; mixed and
// system-audio capture belongs to a different collaborator.
func (h *Helper) Start(src audio.Source) error {
	if src.Kind != audio.SourceMicrophone {
		return ErrNotMicrophone
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrSessionOpen
	}
	h.mu.Unlock()

	sess, err := h.actx.Open(src)
	if err != nil {
		return fmt.Errorf("opening capture: %w", err)
	}

	h.mu.Lock()
	h.sess = sess
	h.running = true
	h.stopping = false
	h.device = sess.Device()
	h.samples = nil
	h.sampleRate = 0
	wg := &sync.WaitGroup{}
	h.wg = wg
	if h.device.Bluetooth {
		h.enterWaitingLocked()
	}
	h.mu.Unlock()

	wg.Add(2)
	go h.chunkLoop(sess, wg)
	go h.eventLoop(sess, wg)
	return nil
}

// Stop tears the session down and returns everything accumulated. The
// capture primitive is closed first, then both loops are joined, so no
// in-flight chunk is lost or double counted. The helper is reusable
// afterwards.
func (h *Helper) Stop() (Result, error) {
	wg, sess, err := h.beginStop()
	if err != nil {
		return Result{}, err
	}

	sess.Close()
	wg.Wait()

	h.mu.Lock()
	res := Result{
		Samples:    h.samples,
		SampleRate: h.sampleRate,
		Stats:      Stats{SampleCount: len(h.samples), SampleRate: h.sampleRate},
	}
	h.resetLocked()
	h.mu.Unlock()
	return res, nil
}

// Cancel is Stop with the samples discarded. Safe to call when no session
// is open.
func (h *Helper) Cancel() {
	wg, sess, err := h.beginStop()
	if err != nil {
		return
	}
	sess.Close()
	wg.Wait()

	h.mu.Lock()
	h.resetLocked()
	h.mu.Unlock()
}

func (h *Helper) beginStop() (*sync.WaitGroup, audio.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running || h.stopping {
		return nil, nil, ErrNoSession
	}
	h.stopping = true
	h.stopWarmupLocked()
	return h.wg, h.sess, nil
}

func (h *Helper) resetLocked() {
	h.sess = nil
	h.wg = nil
	h.running = false
	h.stopping = false
	h.samples = nil
	h.sampleRate = 0
	h.device = audio.DeviceInfo{}
}

func (h *Helper) chunkLoop(sess audio.Session, wg *sync.WaitGroup) {
	defer wg.Done()
	for chunk := range sess.Chunks() {
		h.mu.Lock()
		h.samples = append(h.samples, chunk.Samples...)
		h.sampleRate = chunk.SampleRate
		h.mu.Unlock()

		if h.hooks.OnSamples != nil {
			h.hooks.OnSamples(chunk.Samples, chunk.SampleRate)
		}
		if h.hooks.OnFrame != nil {
			frame := Analyze(chunk.Samples, chunk.SampleRate)
			h.loop.TryPost(func() { h.hooks.OnFrame(frame) })
		}
	}
}

func (h *Helper) eventLoop(sess audio.Session, wg *sync.WaitGroup) {
	defer wg.Done()
	for ev := range sess.Events() {
		switch ev.Kind {
		case audio.EventSignal:
			h.mu.Lock()
			h.signalLocked()
			h.mu.Unlock()
		case audio.EventNoSignal:
			h.mu.Lock()
			h.noSignalLocked()
			h.mu.Unlock()
		case audio.EventDeviceChanged:
			if ev.Device != nil {
				h.deviceChanged(*ev.Device)
			}
		case audio.EventDeviceGone:
			h.postError(ErrDeviceGone)
		case audio.EventInterrupted:
			h.postError(ErrInterrupted)
		case audio.EventFailure:
			h.postError(ev.Err)
		}
	}
}

// deviceChanged re-evaluates Bluetooth status mid-session: switching to a
// Bluetooth device re-enters the warmup protocol from scratch, switching
// away exits it.
func (h *Helper) deviceChanged(dev audio.DeviceInfo) {
	h.mu.Lock()
	h.device = dev
	if dev.Bluetooth {
		h.enterWaitingLocked()
	} else {
		h.exitWarmupLocked()
	}
	h.mu.Unlock()

	if h.hooks.OnDeviceChanged != nil {
		h.loop.Post(func() { h.hooks.OnDeviceChanged(dev) })
	}
}

// postError surfaces capture errors to the workflow. Events that race a
// deliberate stop are dropped; tearing down the device is what produced
// them.
func (h *Helper) postError(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	stopping := h.stopping || !h.running
	h.mu.Unlock()
	if stopping || h.hooks.OnError == nil {
		return
	}
	h.loop.Post(func() { h.hooks.OnError(err) })
}
