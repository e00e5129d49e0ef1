package workflow

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"voco/llm"
	"voco/log"
	"voco/session"
	"voco/sound"
	"voco/transcriber"
	"voco/vad"
)

const conversationSystemPrompt = "You are a voice assistant. Answer briefly and conversationally; your replies are spoken aloud."

// Conversation is a multi-turn voice chat: each turn is captured,
// transcribed, answered by the model, and spoken back, then the
// microphone reopens for the next turn. Escape ends the conversation.
type Conversation struct {
	machine
	deps     Deps
	helper   *session.Helper
	detector *vad.Detector
	monitor  *vad.Monitor

	history   []llm.Message
	endPosted atomic.Bool
	cancelFn  context.CancelFunc
}

func NewConversation(d Deps) (*Conversation, error) {
	det, err := d.newDetector()
	if err != nil {
		return nil, err
	}
	w := &Conversation{deps: d, detector: det, monitor: vad.NewMonitor(true)}
	w.machine.init(d.Loop, d.Manager, w, "conversation", d.Dwell)
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

func (w *Conversation) HandleHotkey() {
	switch w.phase.Kind {
	case Idle:
		w.begin()
	case Listening:
		w.finishTurn()
	case Responding:
		// Barge-in: cut the reply short and listen again.
		if w.deps.Player != nil {
			w.deps.Player.Stop()
		} else {
			w.startListening("")
		}
	default:
		w.Cancel()
	}
}

func (w *Conversation) HandleEscape() { w.Cancel() }

func (w *Conversation) begin() {
	if !w.deps.authorized() {
		w.deps.requestPermission()
		w.deps.cue(sound.Error)
		w.fail(ErrMicAccess)
		return
	}
	w.history = []llm.Message{{Role: llm.RoleSystem, Content: conversationSystemPrompt}}
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
				w.startListening("")
			})
		}()
		return
	}
	w.startListening("")
}

func (w *Conversation) startListening(detail string) {
	w.detector.Reset()
	w.monitor.Reset()
	w.endPosted.Store(false)

	if err := w.helper.Start(w.deps.Source); err != nil {
		w.deps.cue(sound.Error)
		w.fail(err)
		return
	}
	w.deps.cue(sound.Start)
	w.transition(Phase{Kind: Listening, Detail: detail})
	w.scheduleQuietTick()
}

func (w *Conversation) onSamples(samples []float32, sampleRate float64) {
	w.detector.Process(samples, sampleRate)
	if w.detector.SpeechEnded() && w.endPosted.CompareAndSwap(false, true) {
		w.loop.Post(func() {
			if w.phase.Kind == Listening {
				w.finishTurn()
			}
		})
	}
}

func (w *Conversation) scheduleQuietTick() {
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
			log.Infof("conversation ended after prolonged silence")
			w.Cancel()
			return
		}
		w.scheduleQuietTick()
	})
}

func (w *Conversation) onCaptureError(err error) {
	if w.phase.Kind != Listening {
		return
	}
	w.bump()
	w.helper.Cancel()
	w.deps.cue(sound.Error)
	w.fail(err)
}

func (w *Conversation) finishTurn() {
	w.bump()
	w.deps.cue(sound.End)

	res, err := w.helper.Stop()
	if err != nil {
		w.fail(err)
		return
	}
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
			w.turnTranscribed(text, terr)
		})
	}()
}

func (w *Conversation) turnTranscribed(text string, err error) {
	text = strings.TrimSpace(text)
	if errors.Is(err, transcriber.ErrTooShort) || (err == nil && text == "") {
		// Nothing was said; skip the model and keep listening.
		w.startListening("(no speech)")
		return
	}
	if err != nil {
		w.deps.cue(sound.Error)
		w.fail(err)
		return
	}

	log.Transcript(text)
	w.history = append(w.history, llm.Message{Role: llm.RoleUser, Content: text})
	w.transition(Phase{Kind: Processing, Detail: "thinking"})

	ctx, cancel := context.WithCancel(context.Background())
	w.cancelFn = cancel
	gen := w.gen
	messages := append([]llm.Message(nil), w.history...)
	go func() {
		reply, lerr := w.deps.LLM.Complete(ctx, messages)
		w.loop.Post(func() {
			cancel()
			if !w.current(gen) || w.phase.Kind != Processing {
				return
			}
			w.cancelFn = nil
			w.replyReady(reply, lerr)
		})
	}()
}

func (w *Conversation) replyReady(reply string, err error) {
	if err != nil {
		w.deps.cue(sound.Error)
		w.fail(err)
		return
	}
	w.history = append(w.history, llm.Message{Role: llm.RoleAssistant, Content: reply})
	if w.deps.History != nil {
		if _, herr := w.deps.History.AddDictation(w.name, reply, 0); herr != nil {
			log.Warnf("saving conversation turn: %v", herr)
		}
	}
	w.transition(Phase{Kind: Responding, Detail: preview(reply)})

	if w.deps.Synth == nil || w.deps.Player == nil {
		// No voice output configured; show the reply, then reopen the mic.
		gen := w.gen
		w.loop.After(w.dwellDelay, func() {
			if w.current(gen) && w.phase.Kind == Responding {
				w.startListening("")
			}
		})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancelFn = cancel
	gen := w.gen
	go func() {
		clip, serr := w.deps.Synth.Synthesize(ctx, reply)
		w.loop.Post(func() {
			cancel()
			if !w.current(gen) || w.phase.Kind != Responding {
				return
			}
			w.cancelFn = nil
			if serr != nil {
				log.Warnf("speech synthesis: %v", serr)
				w.startListening("")
				return
			}
			w.deps.Player.Play(clip, func() {
				w.loop.Post(func() {
					if w.current(gen) && w.phase.Kind == Responding {
						w.startListening("")
					}
				})
			})
		})
	}()
}

func (w *Conversation) Cancel() {
	w.bump()
	if w.cancelFn != nil {
		w.cancelFn()
		w.cancelFn = nil
	}
	if w.deps.Player != nil {
		w.deps.Player.Stop()
	}
	w.helper.Cancel()
	w.history = nil
	w.transition(Phase{Kind: Idle})
}
