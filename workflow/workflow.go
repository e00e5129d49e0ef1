// Package workflow contains the three voice workflows (dictation,
// conversation, meeting), the phase machine they share, and the manager
// that arbitrates which one owns the microphone. All state in this
// package is owned by the run loop; every entry point below is expected
// to execute as posted work.
package workflow

import (
	"errors"
	"time"

	"voco/diarize"
	"voco/overlay"
)

var ErrMicAccess = errors.New("microphone access not granted")

type PhaseKind int

const (
	Idle PhaseKind = iota
	Listening
	Processing
	Responding
	Done
	Error
)

func (k PhaseKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Responding:
		return "responding"
	case Done:
		return "done"
	case Error:
		return "error"
	}
	return "unknown"
}

// Phase is one workflow's externally visible state.
type Phase struct {
	Kind   PhaseKind
	Detail string
	Err    error
}

// Workflow is what the manager arbitrates between. All methods run on
// the loop.
type Workflow interface {
	Name() string
	// HandleHotkey reacts to the workflow's own chord: it starts the
	// workflow from idle and advances or dismisses it otherwise.
	HandleHotkey()
	// HandleEscape reacts to the shared escape chord while active.
	HandleEscape()
	// Cancel tears everything down synchronously and returns to idle.
	Cancel()
	Active() bool
	Content() overlay.Content
}

// History is the slice of the store the workflows write to. A nil
// History disables persistence.
type History interface {
	AddDictation(workflow, text string, audioSeconds float64) (int64, error)
	AddMeeting(transcript string, audioSeconds float64, segments []diarize.Segment) (int64, error)
}

// DefaultDwell is how long a finished workflow lingers in done or error
// before dismissing itself.
const DefaultDwell = 2500 * time.Millisecond

const previewRunes = 60

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "…"
}
