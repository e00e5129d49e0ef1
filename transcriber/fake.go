package transcriber

import (
	"context"
	"sync"
	"time"
)

// Fake returns canned text after an optional delay. Tests use the delay
// to hold a workflow in its processing phase.
type Fake struct {
	mu    sync.Mutex
	text  string
	err   error
	delay time.Duration
	ready bool
	calls int
	warms int
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err, ready: true}
}

func (f *Fake) SetText(text string) {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
}

func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *Fake) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *Fake) SetReady(ready bool) {
	f.mu.Lock()
	f.ready = ready
	f.mu.Unlock()
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) Warms() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.warms
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *Fake) Warm(_ context.Context) error {
	f.mu.Lock()
	f.warms++
	f.ready = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) Transcribe(ctx context.Context, samples []float32, sampleRate float64) (string, error) {
	f.mu.Lock()
	f.calls++
	text, err, delay := f.text, f.err, f.delay
	f.mu.Unlock()

	if sampleRate > 0 {
		d := time.Duration(float64(len(samples)) / sampleRate * float64(time.Second))
		if d < MinDuration {
			return "", ErrTooShort
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
