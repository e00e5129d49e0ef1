// Package llm holds the chat completion client used by the conversation
// workflow.
package llm

import (
	"context"
	"errors"
	"os"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotConfigured     = errors.New("set GROQ_API_KEY or OPENAI_API_KEY environment variable")
	ErrEmptyConversation = errors.New("conversation has no messages")
	ErrEmptyResponse     = errors.New("model returned an empty response")
)

type Message struct {
	Role    string
	Content string
}

type Client interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}

// New picks an OpenAI-compatible backend from the environment, mirroring
// the transcriber's provider preference so both ride the same key.
func New() (Client, error) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key), nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return NewOpenAI(key), nil
	}
	return nil, ErrNotConfigured
}
