package anthropicclient

import (
	"testing"

	"agentloop/pkg/llm"
)

func TestNormalizeExtractsSystem(t *testing.T) {
	system, conv, err := normalize([]llm.CompletionMessage{
		llm.NewSystemMessage("be brief"),
		llm.NewUserMessage("hello"),
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if system != "be brief" {
		t.Errorf("system = %q, want %q", system, "be brief")
	}
	if len(conv) != 1 || conv[0].Role != llm.RoleUser {
		t.Errorf("conversation = %+v, want single user message", conv)
	}
}

func TestNormalizeMergesConsecutiveUserTurns(t *testing.T) {
	_, conv, err := normalize([]llm.CompletionMessage{
		llm.NewUserMessage("first"),
		llm.NewUserMessage("second"),
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(conv) != 1 {
		t.Fatalf("Expected merged single message, got %d", len(conv))
	}
	if conv[0].Content != "first\n\nsecond" {
		t.Errorf("merged content = %q", conv[0].Content)
	}
}

func TestNormalizeRejectsAssistantLast(t *testing.T) {
	_, _, err := normalize([]llm.CompletionMessage{
		llm.NewUserMessage("question"),
		llm.NewAssistantMessage("answer"),
	})
	if err == nil {
		t.Fatal("Expected error for assistant-final sequence")
	}
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	if _, _, err := normalize(nil); err == nil {
		t.Fatal("Expected error for empty message list")
	}
	if _, _, err := normalize([]llm.CompletionMessage{llm.NewSystemMessage("only system")}); err == nil {
		t.Fatal("Expected error for system-only message list")
	}
}
