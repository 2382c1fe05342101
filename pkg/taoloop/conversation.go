package taoloop

import (
	"fmt"

	"agentloop/pkg/llm"
	"agentloop/pkg/tokens"
)

// TurnKind labels one entry in the conversation transcript.
type TurnKind int

const (
	// TurnQuestion is the user's original question.
	TurnQuestion TurnKind = iota
	// TurnReply is a raw model reply (thought and directive text).
	TurnReply
	// TurnObservation is a stringified tool outcome fed back to the model.
	TurnObservation
)

// Turn is one append-only transcript entry.
type Turn struct {
	Content string
	Kind    TurnKind
}

// ConversationState is the transcript owned by a single Run invocation.
// Append-only; never shared between runs.
type ConversationState struct {
	systemPrompt string
	turns        []Turn
	counter      *tokens.Counter
}

// newConversation seeds a transcript with the system prompt and question.
func newConversation(systemPrompt, question string, counter *tokens.Counter) *ConversationState {
	return &ConversationState{
		systemPrompt: systemPrompt,
		turns:        []Turn{{Kind: TurnQuestion, Content: question}},
		counter:      counter,
	}
}

// AddReply appends a raw model reply.
func (c *ConversationState) AddReply(content string) {
	c.turns = append(c.turns, Turn{Kind: TurnReply, Content: content})
}

// AddObservation appends a tool outcome for the model to read next iteration.
func (c *ConversationState) AddObservation(content string) {
	c.turns = append(c.turns, Turn{Kind: TurnObservation, Content: fmt.Sprintf("Observation: %s", content)})
}

// Turns returns the transcript so far.
func (c *ConversationState) Turns() []Turn {
	return c.turns
}

// Messages renders the transcript as a completion message sequence.
func (c *ConversationState) Messages() []llm.CompletionMessage {
	messages := make([]llm.CompletionMessage, 0, len(c.turns)+1)
	messages = append(messages, llm.NewSystemMessage(c.systemPrompt))
	for i := range c.turns {
		turn := &c.turns[i]
		switch turn.Kind {
		case TurnReply:
			messages = append(messages, llm.NewAssistantMessage(turn.Content))
		default:
			messages = append(messages, llm.NewUserMessage(turn.Content))
		}
	}
	return messages
}

// TokenCount estimates the token size of the rendered transcript.
// Advisory only, used for logging.
func (c *ConversationState) TokenCount() int {
	if c.counter == nil {
		return 0
	}
	total := c.counter.Count(c.systemPrompt)
	for i := range c.turns {
		total += c.counter.Count(c.turns[i].Content)
	}
	return total
}
