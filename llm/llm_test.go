package llm

import (
	"context"
	"errors"
	"testing"
)

func TestFakeRecordsConversation(t *testing.T) {
	f := NewFake("sure", nil)

	msgs := []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hello"},
	}
	reply, err := f.Complete(context.Background(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	if reply != "sure" {
		t.Fatalf("reply = %q", reply)
	}
	if f.Calls() != 1 {
		t.Fatalf("Calls = %d", f.Calls())
	}
	got := f.LastConversation()
	if len(got) != 2 || got[1].Content != "hello" {
		t.Fatalf("LastConversation = %+v", got)
	}
}

func TestEmptyConversationRejected(t *testing.T) {
	f := NewFake("sure", nil)
	if _, err := f.Complete(context.Background(), nil); !errors.Is(err, ErrEmptyConversation) {
		t.Fatalf("got %v, want ErrEmptyConversation", err)
	}
}

func TestEmptyReplyIsError(t *testing.T) {
	f := NewFake("", nil)
	_, err := f.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("got %v, want ErrEmptyResponse", err)
	}
}

func TestNewWithoutKeys(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
}
