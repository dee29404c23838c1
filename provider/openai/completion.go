package openai_provider

import (
	"encoding/json"
	"strings"
)

// Completion is the parsed outcome of a chat-completion response: either the
// generated text, or the raw payload when the shape was not understood.
type Completion struct {
	Text      string
	Raw       []byte
	Malformed bool
}

// ParseCompletion extracts choices[0].message.content from raw. Anything else
// (invalid JSON, no choices, null content) yields a Malformed completion.
func ParseCompletion(raw []byte) Completion {
	var resp struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Completion{Raw: raw, Malformed: true}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return Completion{Raw: raw, Malformed: true}
	}
	return Completion{Text: strings.TrimSpace(*resp.Choices[0].Message.Content), Raw: raw}
}

// String returns the text, or the stringified raw payload for malformed responses.
func (c Completion) String() string {
	if c.Malformed {
		return strings.TrimSpace(string(c.Raw))
	}
	return c.Text
}
