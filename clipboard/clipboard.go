// Package clipboard delivers dictated text into the focused application:
// copy to the system clipboard, then synthesize the platform paste chord.
package clipboard

import (
	"sync"

	cb "github.com/atotto/clipboard"
)

// Sink is where a workflow sends its finished text.
type Sink interface {
	Deliver(text string) error
}

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// System pastes through the real clipboard and keyboard.
type System struct{}

func NewSystem() *System { return &System{} }

func (*System) Deliver(text string) error {
	if text == "" {
		return nil
	}
	if err := Copy(text); err != nil {
		return err
	}
	return Paste()
}

// FakeSink records delivered text for tests.
type FakeSink struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func NewFakeSink(err error) *FakeSink { return &FakeSink{err: err} }

func (f *FakeSink) Deliver(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *FakeSink) Delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}
