// Package anthropicclient provides an Anthropic Claude implementation of the
// llm.Client interface.
package anthropicclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"agentloop/pkg/llm"
)

// Client wraps the Anthropic API client to implement llm.Client.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a Claude client with the given API key and model.
func New(apiKey, model string) llm.Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: client,
		model:  anthropic.Model(model),
	}
}

// Complete implements the llm.Client interface.
//
// Anthropic requires system content in a top-level parameter and strict
// user/assistant alternation starting and ending with a user message, so the
// transcript is normalized before sending.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	systemPrompt, conversation, err := normalize(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llm.NewErrorWithCause(llm.ErrorTypeBadPrompt, err, "invalid message sequence")
	}

	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for i := range conversation {
		msg := &conversation[i]
		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(msg.Role),
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)},
		})
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: systemPrompt,
			Type: "text",
		}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeEmptyResponse, "received empty response from Claude API")
	}

	var text strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	return llm.CompletionResponse{
		Content:    text.String(),
		StopReason: string(resp.StopReason),
	}, nil
}

// GetModelName returns the model name for this client.
func (c *Client) GetModelName() string {
	return string(c.model)
}

// normalize extracts system messages and merges consecutive same-role turns
// so the remaining sequence alternates user/assistant.
func normalize(messages []llm.CompletionMessage) (systemPrompt string, conversation []llm.CompletionMessage, err error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("message list cannot be empty")
	}

	var systemParts []string
	for i := range messages {
		msg := &messages[i]
		if msg.Role == llm.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		if n := len(conversation); n > 0 && conversation[n-1].Role == msg.Role {
			conversation[n-1].Content += "\n\n" + msg.Content
			continue
		}
		conversation = append(conversation, *msg)
	}

	if len(conversation) == 0 {
		return "", nil, fmt.Errorf("must have at least one non-system message")
	}
	if conversation[0].Role != llm.RoleUser {
		return "", nil, fmt.Errorf("first message must be user role, got: %s", conversation[0].Role)
	}
	if last := conversation[len(conversation)-1]; last.Role != llm.RoleUser {
		return "", nil, fmt.Errorf("last message must be user role, got: %s", last.Role)
	}

	return strings.Join(systemParts, "\n\n"), conversation, nil
}

// classifyError maps Anthropic SDK errors to our structured error types.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "401"), strings.Contains(errStr, "403"), strings.Contains(errStr, "authentication"):
		return llm.NewErrorWithCause(llm.ErrorTypeAuth, err, fmt.Sprintf("authentication failed: %v", err))
	case strings.Contains(errStr, "429"), strings.Contains(errStr, "rate"):
		return llm.NewErrorWithCause(llm.ErrorTypeRateLimit, err, fmt.Sprintf("rate limited: %v", err))
	case strings.Contains(errStr, "overloaded"), strings.Contains(errStr, "timeout"), strings.Contains(errStr, "529"):
		return llm.NewErrorWithCause(llm.ErrorTypeTransient, err, fmt.Sprintf("service unavailable: %v", err))
	default:
		return llm.NewErrorWithCause(llm.ErrorTypeUnknown, err, fmt.Sprintf("Claude API error: %v", err))
	}
}
