// Package ollamaclient provides an Ollama-backed implementation of the llm.Client
// interface. Ollama is a local model runtime, so no API key is required.
package ollamaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"agentloop/pkg/llm"
)

// DefaultHost is the standard local Ollama server address.
const DefaultHost = "http://localhost:11434"

// Client wraps the Ollama API client to implement llm.Client.
type Client struct {
	client *api.Client
	model  string
}

// New creates an Ollama client for the given host and model.
// hostURL should be the server URL (e.g., "http://localhost:11434").
func New(hostURL, model string) llm.Client {
	parsedURL, err := url.Parse(hostURL)
	if err != nil {
		parsedURL, _ = url.Parse(DefaultHost)
	}

	return &Client{
		client: api.NewClient(parsedURL, http.DefaultClient),
		model:  model,
	}
}

// Complete implements the llm.Client interface.
func (o *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	messages := make([]api.Message, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		messages = append(messages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": in.Temperature,
			"num_predict": in.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}

	if response.Message.Content == "" {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeEmptyResponse, "received empty response from Ollama")
	}

	return llm.CompletionResponse{
		Content:    response.Message.Content,
		StopReason: stopReason(&response),
	}, nil
}

// GetModelName returns the model name for this client.
func (o *Client) GetModelName() string {
	return o.model
}

// stopReason converts Ollama's done_reason to our stop reason format.
func stopReason(resp *api.ChatResponse) string {
	if !resp.Done {
		return "incomplete"
	}

	switch resp.DoneReason {
	case "stop", "":
		return "end_turn"
	case "length":
		return "max_tokens"
	default:
		return resp.DoneReason
	}
}

// classifyError converts Ollama errors to our error types.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return llm.NewErrorWithCause(llm.ErrorTypeTransient, err, fmt.Sprintf("Ollama server not reachable: %v", err))
	case strings.Contains(errStr, "model") && strings.Contains(errStr, "not found"):
		return llm.NewErrorWithCause(llm.ErrorTypeBadPrompt, err, fmt.Sprintf("Ollama model not found: %v", err))
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "context canceled"):
		return llm.NewErrorWithCause(llm.ErrorTypeTransient, err, fmt.Sprintf("request interrupted: %v", err))
	default:
		return llm.NewErrorWithCause(llm.ErrorTypeUnknown, err, fmt.Sprintf("Ollama API error: %v", err))
	}
}
