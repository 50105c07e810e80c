package mentor

import (
	"strings"

	"codementor/internal/llm"
	"codementor/pkg/models"
)

// QueryResult is the mentor's answer to a chat message
type QueryResult struct {
	Reply      string
	Approaches []models.Approach
}

// HintResult is one revealed rung of the hint ladder
type HintResult struct {
	Level int
	Hint  string
}

// MistakeReport lists the pitfall categories found for an input
type MistakeReport struct {
	Categories []models.Mistake
}

// Nudge is the proactive message shown to a stuck user
type Nudge struct {
	Message string
}

// ParseQuery reads a query completion, falling back to plain text
func ParseQuery(text string) QueryResult {
	reply := llm.ParseStructured(text)
	return QueryResult{Reply: reply.Reply, Approaches: reply.Approaches}
}

// ParseHint wraps a hint completion
func ParseHint(level int, text string) HintResult {
	return HintResult{Level: level, Hint: strings.TrimSpace(text)}
}

// ParseComparison reads a comparator completion. Unparseable text becomes the
// summary of an otherwise empty comparison.
func ParseComparison(text string) *models.Comparison {
	var c models.Comparison
	if err := llm.DecodeJSON(text, &c); err != nil {
		return &models.Comparison{Approaches: []models.ApproachComparison{}, Summary: strings.TrimSpace(text)}
	}
	if c.Approaches == nil {
		c.Approaches = []models.ApproachComparison{}
	}
	return &c
}

// ParseMistakes reads a mistake radar completion. When the model did not
// answer in JSON the local classifier runs on the user's input instead.
func ParseMistakes(text, input string) MistakeReport {
	var out struct {
		Mistakes []models.Mistake `json:"mistakes"`
	}
	if err := llm.DecodeJSON(text, &out); err != nil || out.Mistakes == nil {
		return MistakeReport{Categories: ClassifyMistakes(input)}
	}
	return MistakeReport{Categories: out.Mistakes}
}

// ParseLineExplanations reads an explain-lines completion. Unparseable text
// is attached to the first line so nothing is lost.
func ParseLineExplanations(text, code string) []models.LineExplanation {
	var out struct {
		Explanations []models.LineExplanation `json:"explanations"`
	}
	if err := llm.DecodeJSON(text, &out); err == nil && out.Explanations != nil {
		return out.Explanations
	}

	lines := SplitLines(code)
	return []models.LineExplanation{{Line: 1, Code: lines[0], Explanation: strings.TrimSpace(text)}}
}

// ParseSessionSummary reads a summary completion and stamps the counters
func ParseSessionSummary(text string, hintsUsed, elapsedSeconds int) *models.SessionSummary {
	var s models.SessionSummary
	if err := llm.DecodeJSON(text, &s); err != nil {
		s = models.SessionSummary{Summary: strings.TrimSpace(text)}
	}
	if s.Strengths == nil {
		s.Strengths = []string{}
	}
	if s.Improvements == nil {
		s.Improvements = []string{}
	}
	if s.NextSteps == nil {
		s.NextSteps = []string{}
	}
	s.HintsUsed = hintsUsed
	s.ElapsedSeconds = elapsedSeconds
	return &s
}

// ParseNudge wraps a nudge completion, using the default text when empty
func ParseNudge(text string, elapsedSeconds int) Nudge {
	if msg := strings.TrimSpace(text); msg != "" {
		return Nudge{Message: msg}
	}
	return Nudge{Message: DefaultNudge(elapsedSeconds)}
}
