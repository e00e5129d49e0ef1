package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openaiClient struct {
	name   string
	model  string
	client *openai.Client
}

func NewOpenAI(apiKey string) Client {
	return &openaiClient{
		name:   "openai",
		model:  openai.GPT4oMini,
		client: openai.NewClient(apiKey),
	}
}

func NewGroq(apiKey string) Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = "https://api.groq.com/openai/v1"
	return &openaiClient{
		name:   "groq",
		model:  "llama-3.3-70b-versatile",
		client: openai.NewClientWithConfig(cfg),
	}
}

func (c *openaiClient) Name() string { return c.name }

func (c *openaiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyConversation
	}

	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
