// Package diarize splits a meeting recording into per-speaker segments.
package diarize

import (
	"context"
	"errors"
	"os"
)

var (
	ErrNotConfigured = errors.New("set DIARIZE_API_URL and DIARIZE_API_KEY environment variables")
	ErrNoSegments    = errors.New("diarization returned no segments")
)

// Segment attributes a time range to one speaker. Times are seconds
// from the start of the recording.
type Segment struct {
	Speaker string
	Start   float64
	End     float64
}

type Diarizer interface {
	Name() string
	Diarize(ctx context.Context, samples []float32, sampleRate float64) ([]Segment, error)
}

// New builds a diarizer from the environment, or reports that none is
// configured. Meetings still work without one; they just lose speaker
// attribution.
func New() (Diarizer, error) {
	url := os.Getenv("DIARIZE_API_URL")
	key := os.Getenv("DIARIZE_API_KEY")
	if url == "" || key == "" {
		return nil, ErrNotConfigured
	}
	return NewHTTP(url, key), nil
}
