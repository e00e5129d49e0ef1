package workflow

import (
	"time"

	"voco/audio"
	"voco/clipboard"
	"voco/diarize"
	"voco/llm"
	"voco/permission"
	"voco/runloop"
	"voco/sound"
	"voco/speech"
	"voco/transcriber"
	"voco/vad"
)

// Deps carries everything a workflow constructor may need. Workflows take
// only the fields they use; optional collaborators (History, Diarizer,
// Synth, Cues) may be nil and the workflow degrades accordingly.
type Deps struct {
	Loop        *runloop.Loop
	Manager     *Manager
	Audio       audio.Context
	Transcriber transcriber.Transcriber
	LLM         llm.Client
	Synth       speech.Synthesizer
	Player      speech.Player
	Diarizer    diarize.Diarizer
	Sink        clipboard.Sink
	History     History
	Permission  permission.Signal
	Cues        *sound.Cues

	// Classifier overrides the WebRTC VAD, for tests.
	Classifier vad.Classifier

	SpeechHold    time.Duration
	WarmupTimeout time.Duration
	Dwell         time.Duration
	Source        audio.Source
}

func (d Deps) newDetector() (*vad.Detector, error) {
	if d.Classifier != nil {
		return vad.NewWithClassifier(d.Classifier, d.SpeechHold), nil
	}
	return vad.New(d.SpeechHold)
}

func (d Deps) cue(k sound.Kind) {
	if d.Cues != nil {
		d.Cues.Play(k)
	}
}

func (d Deps) authorized() bool {
	return d.Permission == nil || d.Permission.Authorized()
}

func (d Deps) requestPermission() {
	if d.Permission != nil {
		d.Permission.Request()
	}
}
