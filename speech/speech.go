// Package speech synthesizes and plays back spoken replies for the
// conversation workflow.
package speech

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("set OPENAI_API_KEY environment variable for speech synthesis")
	ErrEmptyText     = errors.New("nothing to say")
)

// Clip is mono PCM ready for playback.
type Clip struct {
	Samples    []float32
	SampleRate int
}

func (c Clip) Empty() bool { return len(c.Samples) == 0 }

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Clip, error)
}

// Player plays one clip at a time. Play returns immediately; done runs
// exactly once, whether the clip finished or Stop cut it short.
type Player interface {
	Play(clip Clip, done func())
	Stop()
}
