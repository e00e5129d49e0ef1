package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"voco/audio"
	"voco/log"
	"voco/session"
	"voco/sound"
	"voco/transcriber"
	"voco/vad"
)

// Dictation is press-to-talk typing: capture until the user stops
// speaking (or presses the chord again), transcribe, and paste the text
// into the focused application.
type Dictation struct {
	machine
	deps     Deps
	helper   *session.Helper
	detector *vad.Detector
	monitor  *vad.Monitor

	// endPosted makes the chunk-loop's speech-end detection post its
	// finish request at most once per capture.
	endPosted atomic.Bool
	cancelFn  context.CancelFunc
}

func NewDictation(d Deps) (*Dictation, error) {
	det, err := d.newDetector()
	if err != nil {
		return nil, err
	}
	w := &Dictation{deps: d, detector: det, monitor: vad.NewMonitor(true)}
	w.machine.init(d.Loop, d.Manager, w, "dictation", d.Dwell)
	w.helper = session.New(d.Loop, d.Audio, session.Hooks{
		OnSamples:       w.onSamples,
		OnFrame:         w.setFrame,
		OnWarmupWaiting: w.setWarmupWaiting,
		OnDeviceChanged: w.onDeviceChanged,
		OnError:         w.onCaptureError,
	})
	if d.WarmupTimeout > 0 {
		w.helper.SetWarmupTimeout(d.WarmupTimeout)
	}
	return w, nil
}

func (w *Dictation) HandleHotkey() {
	switch w.phase.Kind {
	case Idle:
		w.begin()
	case Listening:
		w.finish()
	default:
		// Processing: discard. Done/Error: dismiss early.
		w.Cancel()
	}
}

func (w *Dictation) HandleEscape() { w.Cancel() }

func (w *Dictation) begin() {
	if !w.deps.authorized() {
		w.deps.requestPermission()
		w.deps.cue(sound.Error)
		w.fail(ErrMicAccess)
		return
	}
	if !w.deps.Transcriber.Ready() {
		w.transition(Phase{Kind: Processing, Detail: "loading"})
		gen := w.bump()
		go func() {
			err := w.deps.Transcriber.Warm(context.Background())
			w.loop.Post(func() {
				if !w.current(gen) || w.phase.Kind != Processing {
					return
				}
				if err != nil {
					w.deps.cue(sound.Error)
					w.fail(err)
					return
				}
				w.startListening()
			})
		}()
		return
	}
	w.startListening()
}

func (w *Dictation) startListening() {
	w.detector.Reset()
	w.monitor.Reset()
	w.endPosted.Store(false)

	if err := w.helper.Start(w.deps.Source); err != nil {
		w.deps.cue(sound.Error)
		w.fail(err)
		return
	}
	log.SessionStart(w.name, w.helper.Device().Name, w.helper.Device().Bluetooth)
	w.deps.cue(sound.Start)
	w.transition(Phase{Kind: Listening})
	w.scheduleQuietTick()
}

// onSamples runs on the capture chunk loop, not the run loop. The
// detector is safe for that; the finish itself is posted back.
func (w *Dictation) onSamples(samples []float32, sampleRate float64) {
	w.detector.Process(samples, sampleRate)
	if w.detector.SpeechEnded() && w.endPosted.CompareAndSwap(false, true) {
		w.loop.Post(func() {
			if w.phase.Kind == Listening {
				w.finish()
			}
		})
	}
}

func (w *Dictation) scheduleQuietTick() {
	gen := w.gen
	w.loop.After(vad.TickInterval, func() {
		if !w.current(gen) || w.phase.Kind != Listening {
			return
		}
		switch w.monitor.Tick(w.detector.HasSpeechTick()) {
		case vad.QuietWarn, vad.QuietRepeat:
			w.setQuietWarn(true)
		case vad.QuietWarnClear:
			w.setQuietWarn(false)
		case vad.QuietAutoStop:
			log.Infof("dictation auto-stopped after prolonged silence")
			w.finish()
			return
		}
		w.scheduleQuietTick()
	})
}

func (w *Dictation) onDeviceChanged(dev audio.DeviceInfo) {
	log.Infof("capture device changed: %s (bluetooth=%v)", dev.Name, dev.Bluetooth)
	w.mgr.Refresh()
}

// onCaptureError ends the take: the session stays formally open at the
// capture layer, so it is our job to tear it down.
func (w *Dictation) onCaptureError(err error) {
	if w.phase.Kind != Listening {
		return
	}
	w.bump()
	w.helper.Cancel()
	w.deps.cue(sound.Error)
	w.fail(err)
}

func (w *Dictation) finish() {
	w.bump()
	w.deps.cue(sound.End)

	res, err := w.helper.Stop()
	if err != nil {
		w.fail(err)
		return
	}
	log.SessionEnd(w.name, res.Stats.Duration().Seconds())
	w.transition(Phase{Kind: Processing, Detail: "transcribing"})

	ctx, cancel := context.WithCancel(context.Background())
	w.cancelFn = cancel
	gen := w.gen
	go func() {
		text, terr := w.deps.Transcriber.Transcribe(ctx, res.Samples, res.SampleRate)
		w.loop.Post(func() {
			cancel()
			if !w.current(gen) || w.phase.Kind != Processing {
				return
			}
			w.cancelFn = nil
			w.complete(text, terr, res)
		})
	}()
}

func (w *Dictation) complete(text string, err error, res session.Result) {
	text = strings.TrimSpace(text)
	if errors.Is(err, transcriber.ErrTooShort) || (err == nil && text == "") {
		w.transition(Phase{Kind: Done, Detail: "(no speech)"})
		return
	}
	if err != nil {
		w.deps.cue(sound.Error)
		w.fail(err)
		return
	}

	if err := w.deps.Sink.Deliver(text); err != nil {
		w.deps.cue(sound.Error)
		w.fail(fmt.Errorf("delivering text: %w", err))
		return
	}
	log.Transcript(text)
	if w.deps.History != nil {
		if _, err := w.deps.History.AddDictation(w.name, text, res.Stats.Duration().Seconds()); err != nil {
			log.Warnf("saving dictation: %v", err)
		}
	}
	w.transition(Phase{Kind: Done, Detail: preview(text)})
}

func (w *Dictation) Cancel() {
	w.bump()
	if w.cancelFn != nil {
		w.cancelFn()
		w.cancelFn = nil
	}
	w.helper.Cancel()
	w.transition(Phase{Kind: Idle})
}
