package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI's pcm response format is fixed at 24kHz mono 16-bit.
const openaiPCMRate = 24000

type openaiSynth struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

// New builds a synthesizer from the environment.
func New() (Synthesizer, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, ErrNotConfigured
	}
	return NewOpenAI(key), nil
}

func NewOpenAI(apiKey string) Synthesizer {
	return &openaiSynth{
		client: openai.NewClient(apiKey),
		voice:  openai.VoiceNova,
	}
}

func (s *openaiSynth) Synthesize(ctx context.Context, text string) (Clip, error) {
	if strings.TrimSpace(text) == "" {
		return Clip{}, ErrEmptyText
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()

	raw, err := io.ReadAll(resp)
	if err != nil {
		return Clip{}, fmt.Errorf("reading speech response: %w", err)
	}
	return pcm16ToClip(raw, openaiPCMRate), nil
}

func pcm16ToClip(raw []byte, rate int) Clip {
	n := len(raw) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32768
	}
	return Clip{Samples: samples, SampleRate: rate}
}
