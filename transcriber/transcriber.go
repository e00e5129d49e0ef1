// Package transcriber turns captured microphone samples into text.
package transcriber

import (
	"context"
	"errors"
	"os"
	"time"
)

// MinDuration is the shortest clip worth sending. Anything under this is
// a key tap or a cough, and the hosted models hallucinate on it.
const MinDuration = 500 * time.Millisecond

var (
	ErrNotConfigured = errors.New("set GROQ_API_KEY or OPENAI_API_KEY environment variable")
	ErrNotReady      = errors.New("transcriber is not ready")
	ErrTooShort      = errors.New("audio clip too short to transcribe")
)

type Transcriber interface {
	Name() string
	// Ready reports whether Transcribe can be called right now.
	Ready() bool
	// Warm opens the HTTPS connection ahead of the first request so the
	// TLS handshake does not land on the critical path.
	Warm(ctx context.Context) error
	Transcribe(ctx context.Context, samples []float32, sampleRate float64) (string, error)
}

// New picks a backend from the environment. Groq wins when both keys are
// set because its whisper endpoint is markedly faster.
func New() (Transcriber, error) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroqWhisper(key), nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return NewOpenAIWhisper(key), nil
	}
	return nil, ErrNotConfigured
}
