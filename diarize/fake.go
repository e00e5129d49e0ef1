package diarize

import (
	"context"
	"sync"
)

// Fake returns canned segments.
type Fake struct {
	mu       sync.Mutex
	segments []Segment
	err      error
	calls    int
}

func NewFake(segments []Segment, err error) *Fake {
	return &Fake{segments: segments, err: err}
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Diarize(_ context.Context, _ []float32, _ float64) ([]Segment, error) {
	f.mu.Lock()
	f.calls++
	segments, err := f.segments, f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	return append([]Segment(nil), segments...), nil
}
