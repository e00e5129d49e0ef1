package workflow

import (
	"sync"
	"testing"
	"time"

	"voco/audio"
	"voco/clipboard"
	"voco/diarize"
	"voco/hotkey"
	"voco/llm"
	"voco/overlay"
	"voco/permission"
	"voco/runloop"
	"voco/speech"
	"voco/transcriber"
)

var (
	dictationChord    = hotkey.Binding{Key: hotkey.KeySpace, Mods: hotkey.ModControl | hotkey.ModShift}
	conversationChord = hotkey.Binding{Key: hotkey.KeyC, Mods: hotkey.ModControl | hotkey.ModShift}
	meetingChord      = hotkey.Binding{Key: hotkey.KeyM, Mods: hotkey.ModControl | hotkey.ModShift}
	escapeChord       = hotkey.Binding{Key: hotkey.KeyEscape}
)

// energyClassifier labels a frame as speech when it carries any signal,
// so tests script the VAD through the sample values they emit.
type energyClassifier struct{}

func (energyClassifier) IsSpeech(_ int, frame []int16) (bool, error) {
	for _, s := range frame {
		if s != 0 {
			return true, nil
		}
	}
	return false, nil
}

type fakeHistory struct {
	mu         sync.Mutex
	dictations []string
	meetings   []string
	segments   [][]diarize.Segment
}

func (h *fakeHistory) AddDictation(_, text string, _ float64) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dictations = append(h.dictations, text)
	return int64(len(h.dictations)), nil
}

func (h *fakeHistory) AddMeeting(transcript string, _ float64, segments []diarize.Segment) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.meetings = append(h.meetings, transcript)
	h.segments = append(h.segments, segments)
	return int64(len(h.meetings)), nil
}

func (h *fakeHistory) Dictations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.dictations...)
}

func (h *fakeHistory) Meetings() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.meetings...)
}

func (h *fakeHistory) LastSegments() []diarize.Segment {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.segments) == 0 {
		return nil
	}
	return h.segments[len(h.segments)-1]
}

type harness struct {
	t       *testing.T
	loop    *runloop.Loop
	backend *hotkey.FakeBackend
	keys    *hotkey.Registry
	panel   *overlay.Fake
	actx    *audio.FakeContext
	mgr     *Manager
	trans   *transcriber.Fake
	chat    *llm.Fake
	synth   *speech.FakeSynth
	player  *speech.FakePlayer
	sink    *clipboard.FakeSink
	perm    *permission.Static
	hist    *fakeHistory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	loop := runloop.New()
	go loop.Run()
	t.Cleanup(loop.Stop)

	backend := hotkey.NewFakeBackend()
	h := &harness{
		t:       t,
		loop:    loop,
		backend: backend,
		keys:    hotkey.NewRegistry(loop, backend),
		panel:   overlay.NewFake(),
		actx:    audio.NewFakeContext(audio.DeviceInfo{ID: "mic0", Name: "builtin mic"}),
		trans:   transcriber.NewFake("hello world", nil),
		chat:    llm.NewFake("hi, how can I help?", nil),
		synth:   speech.NewFakeSynth(nil),
		player:  speech.NewFakePlayer(),
		sink:    clipboard.NewFakeSink(nil),
		perm:    permission.NewStatic(true),
		hist:    &fakeHistory{},
	}
	h.mgr = NewManager(loop, h.panel, h.keys)
	return h
}

func (h *harness) deps() Deps {
	return Deps{
		Loop:        h.loop,
		Manager:     h.mgr,
		Audio:       h.actx,
		Transcriber: h.trans,
		LLM:         h.chat,
		Synth:       h.synth,
		Player:      h.player,
		Sink:        h.sink,
		History:     h.hist,
		Permission:  h.perm,
		Classifier:  energyClassifier{},
		SpeechHold:  100 * time.Millisecond,
		Dwell:       time.Second,
	}
}

func (h *harness) dictation() *Dictation {
	h.t.Helper()
	w, err := NewDictation(h.deps())
	if err != nil {
		h.t.Fatalf("NewDictation: %v", err)
	}
	h.mgr.Bind(w, dictationChord)
	return w
}

func (h *harness) conversation() *Conversation {
	h.t.Helper()
	w, err := NewConversation(h.deps())
	if err != nil {
		h.t.Fatalf("NewConversation: %v", err)
	}
	h.mgr.Bind(w, conversationChord)
	return w
}

func (h *harness) meeting(d diarize.Diarizer) *Meeting {
	h.t.Helper()
	deps := h.deps()
	deps.Diarizer = d
	w, err := NewMeeting(deps)
	if err != nil {
		h.t.Fatalf("NewMeeting: %v", err)
	}
	h.mgr.Bind(w, meetingChord)
	return w
}

// phase reads w's phase on the loop.
func (h *harness) phase(w interface{ Phase() Phase }) Phase {
	var p Phase
	h.loop.Do(func() { p = w.Phase() })
	return p
}

func (h *harness) waitPhase(w interface{ Phase() Phase }, kind PhaseKind) {
	h.t.Helper()
	h.waitFor(func() bool { return h.phase(w).Kind == kind },
		"waiting for phase %v, stuck at %v", kind, h.phase(w).Kind)
}

func (h *harness) waitFor(cond func() bool, format string, args ...any) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf(format, args...)
}

// speak emits d worth of 16kHz audio that the energy classifier labels
// as speech.
func (h *harness) speak(d time.Duration) {
	h.t.Helper()
	sess := h.actx.LastSession()
	if sess == nil {
		h.t.Fatal("no capture session open")
	}
	n := int(16000 * d.Seconds())
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.5
	}
	if !sess.EmitChunk(samples) {
		h.t.Fatal("session closed while emitting speech")
	}
}

// silence emits d worth of zero samples into the open session.
func (h *harness) silence(d time.Duration) {
	h.t.Helper()
	sess := h.actx.LastSession()
	if sess == nil {
		h.t.Fatal("no capture session open")
	}
	n := int(16000 * d.Seconds())
	sess.EmitChunk(make([]float32, n))
}
