package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"voco/diarize"
)

func TestMeetingSavesTranscriptWithSpeakers(t *testing.T) {
	h := newHarness(t)
	segs := []diarize.Segment{
		{Speaker: "SPEAKER_00", Start: 0, End: 1.2},
		{Speaker: "SPEAKER_01", Start: 1.2, End: 2.5},
	}
	m := h.meeting(diarize.NewFake(segs, nil))

	h.backend.Press(meetingChord)
	h.waitPhase(m, Listening)
	if got := h.phase(m).Detail; got != "recording" {
		t.Fatalf("detail = %q", got)
	}

	h.speak(600 * time.Millisecond)
	h.backend.Press(meetingChord)
	h.waitPhase(m, Done)

	if got := h.hist.Meetings(); len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("saved meetings = %v", got)
	}
	if got := h.hist.LastSegments(); len(got) != 2 || got[0].Speaker != "SPEAKER_00" {
		t.Fatalf("saved segments = %v", got)
	}
	if detail := h.phase(m).Detail; !strings.Contains(detail, "2 segments") {
		t.Fatalf("detail = %q, want segment count", detail)
	}
}

func TestMeetingWithoutDiarizer(t *testing.T) {
	h := newHarness(t)
	m := h.meeting(nil)

	h.backend.Press(meetingChord)
	h.waitPhase(m, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(meetingChord)
	h.waitPhase(m, Done)

	if got := h.hist.Meetings(); len(got) != 1 {
		t.Fatalf("saved meetings = %v", got)
	}
	if got := h.hist.LastSegments(); got != nil {
		t.Fatalf("segments = %v, want none", got)
	}
}

func TestMeetingDiarizeFailureKeepsTranscript(t *testing.T) {
	h := newHarness(t)
	m := h.meeting(diarize.NewFake(nil, errors.New("diarizer down")))

	h.backend.Press(meetingChord)
	h.waitPhase(m, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(meetingChord)
	h.waitPhase(m, Done)

	if got := h.hist.Meetings(); len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("saved meetings = %v", got)
	}
	if got := h.hist.LastSegments(); got != nil {
		t.Fatalf("segments = %v, want none after a failed diarization", got)
	}
}

func TestMeetingEmptyTranscriptNotSaved(t *testing.T) {
	h := newHarness(t)
	h.trans.SetText("")
	m := h.meeting(nil)

	h.backend.Press(meetingChord)
	h.waitPhase(m, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(meetingChord)
	h.waitPhase(m, Done)

	if got := h.phase(m).Detail; got != "(no speech)" {
		t.Fatalf("detail = %q", got)
	}
	if h.hist.Meetings() != nil {
		t.Fatal("empty meeting was saved")
	}
}

func TestMeetingSilenceDoesNotAutoStop(t *testing.T) {
	h := newHarness(t)
	m := h.meeting(nil)

	h.backend.Press(meetingChord)
	h.waitPhase(m, Listening)

	// Plenty of silence relative to the dictation hold; a meeting keeps
	// recording through it.
	h.silence(2 * time.Second)
	time.Sleep(100 * time.Millisecond)
	if got := h.phase(m).Kind; got != Listening {
		t.Fatalf("phase = %v, meeting ended on silence", got)
	}
}

// ctxDiarizer records the context it was called with so tests can check
// that it is released once the result is accepted.
type ctxDiarizer struct {
	segs []diarize.Segment

	mu  sync.Mutex
	ctx context.Context
}

func (d *ctxDiarizer) Name() string { return "ctx" }

func (d *ctxDiarizer) Diarize(ctx context.Context, _ []float32, _ float64) ([]diarize.Segment, error) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()
	return d.segs, nil
}

func (d *ctxDiarizer) seen() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx
}

func TestMeetingReleasesContextAfterDiarize(t *testing.T) {
	h := newHarness(t)
	d := &ctxDiarizer{segs: []diarize.Segment{{Speaker: "SPEAKER_00", Start: 0, End: 1}}}
	m := h.meeting(d)

	h.backend.Press(meetingChord)
	h.waitPhase(m, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(meetingChord)
	h.waitPhase(m, Done)

	if got := h.hist.Meetings(); len(got) != 1 {
		t.Fatalf("saved meetings = %v", got)
	}
	h.waitFor(func() bool {
		ctx := d.seen()
		return ctx != nil && ctx.Err() != nil
	}, "transcription context still live after the meeting was saved")
}

func TestMeetingEscapeDiscardsRecording(t *testing.T) {
	h := newHarness(t)
	m := h.meeting(nil)

	h.backend.Press(meetingChord)
	h.waitPhase(m, Listening)
	h.speak(600 * time.Millisecond)

	h.backend.Press(escapeChord)
	h.waitPhase(m, Idle)

	if h.trans.Calls() != 0 {
		t.Fatal("cancelled meeting was transcribed")
	}
	if h.hist.Meetings() != nil {
		t.Fatal("cancelled meeting was saved")
	}
}
