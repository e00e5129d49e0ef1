package workflow

import (
	"errors"
	"testing"
	"time"

	"voco/audio"
)

func TestDictationDeliversTranscript(t *testing.T) {
	h := newHarness(t)
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)

	h.speak(600 * time.Millisecond)
	h.backend.Press(dictationChord)
	h.waitPhase(d, Done)

	got := h.sink.Delivered()
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("delivered = %v", got)
	}
	if hist := h.hist.Dictations(); len(hist) != 1 || hist[0] != "hello world" {
		t.Fatalf("history = %v", hist)
	}
	if sess := h.actx.LastSession(); !sess.Closed() {
		t.Fatal("capture session left open after finish")
	}
}

func TestDictationDoneDismissesAfterDwell(t *testing.T) {
	h := newHarness(t)
	deps := h.deps()
	deps.Dwell = 50 * time.Millisecond
	d, err := NewDictation(deps)
	if err != nil {
		t.Fatal(err)
	}
	h.mgr.Bind(d, dictationChord)

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(dictationChord)

	h.waitPhase(d, Idle)
	if h.panel.Visible() {
		t.Fatal("panel still visible after the done dwell")
	}
}

func TestDictationEmptyTranscriptSkipsDelivery(t *testing.T) {
	h := newHarness(t)
	h.trans.SetText("   ")
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(dictationChord)
	h.waitPhase(d, Done)

	if got := h.phase(d).Detail; got != "(no speech)" {
		t.Fatalf("detail = %q", got)
	}
	if h.sink.Delivered() != nil {
		t.Fatalf("empty transcript was delivered: %v", h.sink.Delivered())
	}
	if h.hist.Dictations() != nil {
		t.Fatal("empty transcript was saved")
	}
}

func TestDictationTooShortTakeSkipsDelivery(t *testing.T) {
	h := newHarness(t)
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)
	h.speak(100 * time.Millisecond)
	h.backend.Press(dictationChord)
	h.waitPhase(d, Done)

	if h.sink.Delivered() != nil {
		t.Fatalf("short take was delivered: %v", h.sink.Delivered())
	}
}

func TestDictationEscapeDuringProcessingDiscardsResult(t *testing.T) {
	h := newHarness(t)
	h.trans.SetDelay(100 * time.Millisecond)
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(dictationChord)
	h.waitPhase(d, Processing)

	h.backend.Press(escapeChord)
	h.waitPhase(d, Idle)

	// The in-flight transcription completes against a bumped generation
	// and must change nothing.
	time.Sleep(250 * time.Millisecond)
	if got := h.phase(d).Kind; got != Idle {
		t.Fatalf("phase = %v after stale completion, want idle", got)
	}
	if h.sink.Delivered() != nil {
		t.Fatalf("stale transcription was delivered: %v", h.sink.Delivered())
	}
}

func TestDictationPermissionDenied(t *testing.T) {
	h := newHarness(t)
	h.perm.SetAuthorized(false)
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Error)

	if h.perm.Requests() != 1 {
		t.Fatalf("permission requests = %d, want 1", h.perm.Requests())
	}
	if h.actx.OpenCount() != 0 {
		t.Fatal("capture opened without authorization")
	}
	if got := h.phase(d).Err; !errors.Is(got, ErrMicAccess) {
		t.Fatalf("err = %v", got)
	}
}

func TestDictationWarmsColdTranscriber(t *testing.T) {
	h := newHarness(t)
	h.trans.SetReady(false)
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)

	if h.trans.Warms() != 1 {
		t.Fatalf("warms = %d, want 1", h.trans.Warms())
	}
}

func TestDictationAutoFinishOnSilence(t *testing.T) {
	h := newHarness(t)
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)

	// Speech followed by more trailing silence than the hold ends the
	// take without another key press.
	h.speak(600 * time.Millisecond)
	h.silence(200 * time.Millisecond)

	h.waitPhase(d, Done)
	got := h.sink.Delivered()
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("delivered = %v", got)
	}
}

func TestDictationCaptureErrorFailsTake(t *testing.T) {
	h := newHarness(t)
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)

	sess := h.actx.LastSession()
	sess.EmitEvent(audio.Event{Kind: audio.EventFailure, Err: errors.New("device wedged")})
	h.waitPhase(d, Error)

	h.waitFor(sess.Closed, "capture session not torn down after failure")
	if h.sink.Delivered() != nil {
		t.Fatal("failed take delivered text")
	}
}

func TestDictationTranscribeErrorFailsTake(t *testing.T) {
	h := newHarness(t)
	h.trans.SetErr(errors.New("upstream 500"))
	d := h.dictation()

	h.backend.Press(dictationChord)
	h.waitPhase(d, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(dictationChord)

	h.waitPhase(d, Error)
	if h.sink.Delivered() != nil {
		t.Fatal("failed transcription delivered text")
	}
}
