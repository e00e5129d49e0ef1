package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"voco/diarize"
	"voco/log"
	"voco/session"
	"voco/sound"
	"voco/transcriber"
	"voco/vad"
)

// Meeting records until explicitly stopped, then transcribes the whole
// take and, when a diarizer is configured, attributes segments to
// speakers. Long silences only warn; a meeting never auto-stops.
type Meeting struct {
	machine
	deps     Deps
	helper   *session.Helper
	detector *vad.Detector
	monitor  *vad.Monitor

	started  time.Time
	cancelFn context.CancelFunc
}

func NewMeeting(d Deps) (*Meeting, error) {
	det, err := d.newDetector()
	if err != nil {
		return nil, err
	}
	w := &Meeting{deps: d, detector: det, monitor: vad.NewMonitor(false)}
	w.machine.init(d.Loop, d.Manager, w, "meeting", d.Dwell)
	w.helper = session.New(d.Loop, d.Audio, session.Hooks{
		OnSamples:       w.onSamples,
		OnFrame:         w.setFrame,
		OnWarmupWaiting: w.setWarmupWaiting,
		OnError:         w.onCaptureError,
	})
	if d.WarmupTimeout > 0 {
		w.helper.SetWarmupTimeout(d.WarmupTimeout)
	}
	return w, nil
}

func (w *Meeting) HandleHotkey() {
	switch w.phase.Kind {
	case Idle:
		w.begin()
	case Listening:
		w.finish()
	default:
		w.Cancel()
	}
}

func (w *Meeting) HandleEscape() { w.Cancel() }

func (w *Meeting) begin() {
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

func (w *Meeting) startListening() {
	w.detector.Reset()
	w.monitor.Reset()

	if err := w.helper.Start(w.deps.Source); err != nil {
		w.deps.cue(sound.Error)
		w.fail(err)
		return
	}
	w.started = time.Now()
	log.SessionStart(w.name, w.helper.Device().Name, w.helper.Device().Bluetooth)
	w.deps.cue(sound.Start)
	w.transition(Phase{Kind: Listening, Detail: "recording"})
	w.scheduleQuietTick()
}

// onSamples only feeds the detector so the quiet monitor has a speech
// signal; meetings never end on voice activity.
func (w *Meeting) onSamples(samples []float32, sampleRate float64) {
	w.detector.Process(samples, sampleRate)
}

func (w *Meeting) scheduleQuietTick() {
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
		}
		w.scheduleQuietTick()
	})
}

func (w *Meeting) onCaptureError(err error) {
	if w.phase.Kind != Listening {
		return
	}
	w.bump()
	w.helper.Cancel()
	w.deps.cue(sound.Error)
	w.fail(err)
}

func (w *Meeting) finish() {
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
			if !w.current(gen) || w.phase.Kind != Processing {
				return
			}
			w.cancelFn = nil
			w.transcribed(ctx, cancel, text, terr, res)
		})
	}()
}

func (w *Meeting) transcribed(ctx context.Context, cancel context.CancelFunc, text string, err error, res session.Result) {
	text = strings.TrimSpace(text)
	if errors.Is(err, transcriber.ErrTooShort) || (err == nil && text == "") {
		cancel()
		w.transition(Phase{Kind: Done, Detail: "(no speech)"})
		return
	}
	if err != nil {
		cancel()
		w.deps.cue(sound.Error)
		w.fail(err)
		return
	}
	log.Transcript(text)

	if w.deps.Diarizer == nil {
		cancel()
		w.save(text, nil, res)
		return
	}

	w.transition(Phase{Kind: Processing, Detail: "identifying speakers"})
	w.cancelFn = cancel
	gen := w.gen
	go func() {
		segments, derr := w.deps.Diarizer.Diarize(ctx, res.Samples, res.SampleRate)
		w.loop.Post(func() {
			// The blocking call has returned; the context is done either way.
			cancel()
			if !w.current(gen) || w.phase.Kind != Processing {
				return
			}
			w.cancelFn = nil
			if derr != nil {
				// A failed diarization still leaves a usable transcript.
				log.Warnf("speaker identification: %v", derr)
				segments = nil
			}
			w.save(text, segments, res)
		})
	}()
}

func (w *Meeting) save(text string, segments []diarize.Segment, res session.Result) {
	if w.deps.History != nil {
		if _, err := w.deps.History.AddMeeting(text, res.Stats.Duration().Seconds(), segments); err != nil {
			log.Warnf("saving meeting: %v", err)
		}
	}
	detail := fmt.Sprintf("saved %s", time.Since(w.started).Round(time.Second))
	if n := len(segments); n > 0 {
		detail = fmt.Sprintf("%s, %d segments", detail, n)
	}
	w.transition(Phase{Kind: Done, Detail: detail})
}

func (w *Meeting) Cancel() {
	w.bump()
	if w.cancelFn != nil {
		w.cancelFn()
		w.cancelFn = nil
	}
	w.helper.Cancel()
	w.transition(Phase{Kind: Idle})
}
