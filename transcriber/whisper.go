package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"voco/encoder"
	"voco/log"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// Whisper sends FLAC-compressed audio to an OpenAI-compatible
// transcription endpoint.
type Whisper struct {
	name     string
	model    string
	language string
	client   *openai.Client
}

func NewOpenAIWhisper(apiKey string) *Whisper {
	return &Whisper{
		name:   "openai",
		model:  openai.Whisper1,
		client: openai.NewClient(apiKey),
	}
}

func NewGroqWhisper(apiKey string) *Whisper {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	return &Whisper{
		name:   "groq",
		model:  "whisper-large-v3-turbo",
		client: openai.NewClientWithConfig(cfg),
	}
}

func (w *Whisper) Name() string { return w.name }

// SetLanguage pins the recognition language (ISO 639-1). Empty means
// auto-detect.
func (w *Whisper) SetLanguage(lang string) { w.language = lang }

func (w *Whisper) Ready() bool { return true }

func (w *Whisper) Warm(ctx context.Context) error {
	// A cheap authenticated GET; we only care about the side effect of an
	// established TLS connection in the transport's pool.
	start := time.Now()
	_, err := w.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("warm %s connection: %w", w.name, err)
	}
	log.Debugf("warmed %s connection in %s", w.name, time.Since(start).Round(time.Millisecond))
	return nil
}

func (w *Whisper) Transcribe(ctx context.Context, samples []float32, sampleRate float64) (string, error) {
	if sampleRate <= 0 {
		return "", fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if time.Duration(float64(len(samples))/sampleRate*float64(time.Second)) < MinDuration {
		return "", ErrTooShort
	}

	encStart := time.Now()
	data, err := encoder.EncodeFLAC(samples, int(sampleRate))
	if err != nil {
		return "", fmt.Errorf("encode audio: %w", err)
	}
	encTime := time.Since(encStart)

	reqStart := time.Now()
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Language: w.language,
		FilePath: "audio.flac",
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", w.name, err)
	}
	log.Debugf("transcribed %.1fs of audio: encode %s, request %s",
		float64(len(samples))/sampleRate,
		encTime.Round(time.Millisecond),
		time.Since(reqStart).Round(time.Millisecond))
	return resp.Text, nil
}
