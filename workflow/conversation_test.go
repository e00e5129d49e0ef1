package workflow

import (
	"testing"
	"time"

	"voco/llm"
)

func TestConversationTurn(t *testing.T) {
	h := newHarness(t)
	c := h.conversation()

	h.backend.Press(conversationChord)
	h.waitPhase(c, Listening)

	h.speak(600 * time.Millisecond)
	h.backend.Press(conversationChord)
	h.waitPhase(c, Responding)

	conv := h.chat.LastConversation()
	if len(conv) != 2 || conv[0].Role != llm.RoleSystem || conv[1].Role != llm.RoleUser {
		t.Fatalf("conversation sent to the model = %+v", conv)
	}
	if conv[1].Content != "hello world" {
		t.Fatalf("user turn = %q", conv[1].Content)
	}
	h.waitFor(h.player.Playing, "reply never started playing")
	if calls := h.synth.Calls(); len(calls) != 1 || calls[0] != "hi, how can I help?" {
		t.Fatalf("synthesized = %v", calls)
	}

	// The reply finishing reopens the microphone for the next turn.
	h.player.Finish()
	h.waitPhase(c, Listening)
	if h.actx.OpenCount() != 2 {
		t.Fatalf("OpenCount = %d, want a second session", h.actx.OpenCount())
	}
}

func TestConversationKeepsHistoryAcrossTurns(t *testing.T) {
	h := newHarness(t)
	c := h.conversation()

	h.backend.Press(conversationChord)
	h.waitPhase(c, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(conversationChord)
	h.waitPhase(c, Responding)
	h.waitFor(h.player.Playing, "reply never started playing")
	h.player.Finish()
	h.waitPhase(c, Listening)

	h.speak(600 * time.Millisecond)
	h.backend.Press(conversationChord)
	h.waitPhase(c, Responding)

	// system + user + assistant + user
	conv := h.chat.LastConversation()
	if len(conv) != 4 {
		t.Fatalf("second turn sent %d messages, want 4: %+v", len(conv), conv)
	}
	if conv[2].Role != llm.RoleAssistant {
		t.Fatalf("message 2 role = %v, want assistant", conv[2].Role)
	}
}

func TestConversationEmptyTurnSkipsModel(t *testing.T) {
	h := newHarness(t)
	h.trans.SetText("")
	c := h.conversation()

	h.backend.Press(conversationChord)
	h.waitPhase(c, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(conversationChord)

	// Straight back to listening, no model call.
	h.waitFor(func() bool { return h.actx.OpenCount() == 2 }, "microphone not reopened")
	h.waitPhase(c, Listening)
	if h.chat.Calls() != 0 {
		t.Fatalf("model called %d times for an empty turn", h.chat.Calls())
	}
}

func TestConversationBargeIn(t *testing.T) {
	h := newHarness(t)
	c := h.conversation()

	h.backend.Press(conversationChord)
	h.waitPhase(c, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(conversationChord)
	h.waitPhase(c, Responding)
	h.waitFor(h.player.Playing, "reply never started playing")

	// Pressing the chord mid-reply cuts playback and listens again.
	h.backend.Press(conversationChord)
	h.waitPhase(c, Listening)
	if h.player.Stops() != 1 {
		t.Fatalf("player stops = %d, want 1", h.player.Stops())
	}
}

func TestConversationEscapeDuringReplyGoesIdle(t *testing.T) {
	h := newHarness(t)
	c := h.conversation()

	h.backend.Press(conversationChord)
	h.waitPhase(c, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(conversationChord)
	h.waitPhase(c, Responding)
	h.waitFor(h.player.Playing, "reply never started playing")

	h.backend.Press(escapeChord)
	h.waitPhase(c, Idle)

	// Stop's completion callback is stale and must not reopen the mic.
	time.Sleep(100 * time.Millisecond)
	if got := h.phase(c).Kind; got != Idle {
		t.Fatalf("phase = %v after escape, want idle", got)
	}
	if h.actx.OpenCount() != 1 {
		t.Fatalf("OpenCount = %d, the stale playback callback reopened the mic", h.actx.OpenCount())
	}
	if h.player.Playing() {
		t.Fatal("reply still playing after escape")
	}
}

func TestConversationWithoutVoiceOutput(t *testing.T) {
	h := newHarness(t)
	deps := h.deps()
	deps.Synth = nil
	deps.Player = nil
	deps.Dwell = 50 * time.Millisecond
	c, err := NewConversation(deps)
	if err != nil {
		t.Fatal(err)
	}
	h.mgr.Bind(c, conversationChord)

	h.backend.Press(conversationChord)
	h.waitPhase(c, Listening)
	h.speak(600 * time.Millisecond)
	h.backend.Press(conversationChord)
	h.waitPhase(c, Responding)

	// Without a synthesizer the reply dwells on screen, then the mic
	// reopens.
	h.waitFor(func() bool { return h.actx.OpenCount() == 2 }, "microphone not reopened")
	h.waitPhase(c, Listening)
}
