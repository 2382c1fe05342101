// Package tokens provides tiktoken-based token counting utilities.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Counter provides accurate token counting for prompt and transcript text.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a token counter for the given model name. Local and
// Claude models have no published tokenizer, so everything maps to the
// GPT-4 encoding, which is close enough for budget accounting.
func NewCounter(model string) (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}
	return &Counter{codec: codec}, nil
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if c.codec == nil {
		// Fallback to character-based estimation (4 chars ≈ 1 token)
		return len(text) / 4
	}

	count, err := c.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}

	return count
}
