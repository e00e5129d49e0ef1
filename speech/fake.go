package speech

import (
	"context"
	"sync"
)

// FakeSynth returns a fixed-length clip for any text.
type FakeSynth struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func NewFakeSynth(err error) *FakeSynth { return &FakeSynth{err: err} }

func (f *FakeSynth) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeSynth) Synthesize(_ context.Context, text string) (Clip, error) {
	if text == "" {
		return Clip{}, ErrEmptyText
	}
	f.mu.Lock()
	f.calls = append(f.calls, text)
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return Clip{}, err
	}
	return Clip{Samples: make([]float32, 2400), SampleRate: 24000}, nil
}

// FakePlayer completes clips only when the test says so.
type FakePlayer struct {
	mu      sync.Mutex
	done    func()
	plays   int
	stops   int
	playing bool
}

func NewFakePlayer() *FakePlayer { return &FakePlayer{} }

func (f *FakePlayer) Play(clip Clip, done func()) {
	f.mu.Lock()
	f.plays++
	f.playing = true
	f.done = done
	f.mu.Unlock()
}

// Stop completes the active clip early; done still runs.
func (f *FakePlayer) Stop() {
	f.mu.Lock()
	f.stops++
	f.playing = false
	done := f.done
	f.done = nil
	f.mu.Unlock()
	if done != nil {
		done()
	}
}

// Finish simulates the clip reaching its end.
func (f *FakePlayer) Finish() {
	f.mu.Lock()
	done := f.done
	f.done = nil
	f.playing = false
	f.mu.Unlock()
	if done != nil {
		done()
	}
}

func (f *FakePlayer) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *FakePlayer) Plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *FakePlayer) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}
