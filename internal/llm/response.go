package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"codementor/pkg/models"
)

var jsonFence = regexp.MustCompile("(?i)```json")

const (
	emptyReply        = "No explanation generated."
	unstructuredReply = "I couldn't structure the response properly."
)

// CleanResponse strips Markdown code fences and surrounding whitespace
func CleanResponse(text string) string {
	text = jsonFence.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// StructuredReply is the mentor's answer to a free-form query
type StructuredReply struct {
	Reply      string            `json:"reply"`
	Approaches []models.Approach `json:"approaches"`
}

// ParseStructured reads a {reply, approaches} object. Text that is not such an
// object becomes the reply with no approaches; it never fails.
func ParseStructured(text string) StructuredReply {
	var raw struct {
		Reply      string          `json:"reply"`
		Approaches json.RawMessage `json:"approaches"`
	}
	if err := DecodeJSON(text, &raw); err != nil {
		reply := text
		if strings.TrimSpace(reply) == "" {
			reply = unstructuredReply
		}
		return StructuredReply{Reply: reply, Approaches: []models.Approach{}}
	}

	out := StructuredReply{Reply: raw.Reply, Approaches: []models.Approach{}}
	if out.Reply == "" {
		out.Reply = emptyReply
	}
	var approaches []models.Approach
	if len(raw.Approaches) > 0 && json.Unmarshal(raw.Approaches, &approaches) == nil && approaches != nil {
		out.Approaches = approaches
	}
	return out
}

// DecodeJSON unmarshals a cleaned completion into v, reporting *ParseError
func DecodeJSON(text string, v interface{}) error {
	if err := json.Unmarshal([]byte(CleanResponse(text)), v); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
