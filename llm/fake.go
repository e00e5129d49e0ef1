package llm

import (
	"context"
	"sync"
	"time"
)

// Fake replies with canned text and records the conversations it saw.
type Fake struct {
	mu    sync.Mutex
	reply string
	err   error
	delay time.Duration
	seen  [][]Message
}

func NewFake(reply string, err error) *Fake {
	return &Fake{reply: reply, err: err}
}

func (f *Fake) SetReply(reply string) {
	f.mu.Lock()
	f.reply = reply
	f.mu.Unlock()
}

func (f *Fake) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// LastConversation returns the messages from the most recent call.
func (f *Fake) LastConversation() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seen) == 0 {
		return nil
	}
	return f.seen[len(f.seen)-1]
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyConversation
	}
	f.mu.Lock()
	f.seen = append(f.seen, append([]Message(nil), messages...))
	reply, err, delay := f.reply, f.err, f.delay
	f.mu.Unlock()

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
	if reply == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}
