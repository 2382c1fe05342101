// Package openaicompat provides an llm.Client implementation over the official
// OpenAI Go SDK. Pointing the base URL at an OpenAI-compatible server such as
// Ollama's /v1 endpoint lets local models speak the same chat protocol.
package openaicompat

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"agentloop/pkg/llm"
)

// Client wraps the OpenAI Go client to implement llm.Client.
type Client struct {
	client openai.Client
	model  string
}

// New creates a chat completions client against api.openai.com.
func New(apiKey, model string) llm.Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: client, model: model}
}

// NewWithBaseURL creates a chat completions client against an
// OpenAI-compatible server (e.g., "http://localhost:11434/v1").
func NewWithBaseURL(baseURL, apiKey, model string) llm.Client {
	if apiKey == "" {
		// Local compatibility servers ignore the key but the SDK requires one.
		apiKey = "unused"
	}
	client := openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey))
	return &Client{client: client, model: model}
}

// Complete implements the llm.Client interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(in.MaxTokens)),
		Temperature: openai.Float(float64(in.Temperature)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeEmptyResponse, "chat completion returned no choices")
	}

	choice := resp.Choices[0]
	if choice.Message.Content == "" {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeEmptyResponse, "chat completion returned empty content")
	}

	return llm.CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: stopReason(choice.FinishReason),
	}, nil
}

// GetModelName returns the model name for this client.
func (c *Client) GetModelName() string {
	return c.model
}

func stopReason(finishReason string) string {
	switch finishReason {
	case "stop", "":
		return "end_turn"
	case "length":
		return "max_tokens"
	default:
		return finishReason
	}
}

// classifyError maps SDK errors to our structured error types.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "401"), strings.Contains(errStr, "403"):
		return llm.NewErrorWithCause(llm.ErrorTypeAuth, err, fmt.Sprintf("authentication failed: %v", err))
	case strings.Contains(errStr, "429"):
		return llm.NewErrorWithCause(llm.ErrorTypeRateLimit, err, fmt.Sprintf("rate limited: %v", err))
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "timeout"):
		return llm.NewErrorWithCause(llm.ErrorTypeTransient, err, fmt.Sprintf("server not reachable: %v", err))
	default:
		return llm.NewErrorWithCause(llm.ErrorTypeUnknown, err, fmt.Sprintf("chat completion failed: %v", err))
	}
}
