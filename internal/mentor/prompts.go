package mentor

import (
	"fmt"
	"strings"

	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/samber/lo"
)

const (
	// HistoryTurns is how many chat turns a prompt carries
	HistoryTurns = 10
	// MaxHintLevel is the top rung of the hint ladder
	MaxHintLevel = 4
	// MaxExplainLines caps snippets sent to the line explainer
	MaxExplainLines = 30
	// maxReferenceSolutions caps scraped solutions quoted in the query prompt
	maxReferenceSolutions = 3
)

var hintLevels = map[int]string{
	1: "Tiny push. One or two sentences that point the user at what to look at. Do not name an algorithm or data structure.",
	2: "Approach direction. Name the technique or pattern that fits (HashMap, Two Pointers, DP, Sliding Window, ...) and why it fits.",
	3: "Strong hint. Give the key insight that unlocks the problem and how it drives the algorithm. Still no full solution.",
	4: "Pseudocode outline. Short numbered steps of the algorithm with its complexity. No real code.",
}

// QueryPrompt builds the mentor prompt for a free-form chat message
func QueryPrompt(problem *models.ProblemData, history []models.ChatTurn, query string, forceApproach bool) string {
	var solutions []string
	if problem != nil {
		solutions = lo.Slice(problem.ScrapedSolutions, 0, maxReferenceSolutions)
	}

	prompt := fmt.Sprintf(`
You are an elite DSA mentor and competitive programmer.

STYLE:
- Visual, structured, clear, and engaging
- Use bullet points and short sections
- Avoid long paragraphs
- Teach thinking, not copying
- Never reveal full solution unless user explicitly asks

GOALS:
- Help user START thinking
- Explain intuition visually
- Suggest multiple approaches
- Highlight patterns (HashMap, DP, Sliding Window, etc.)
- Mention edge cases
- Keep it simple but insightful

PROBLEM:
%s

CHAT HISTORY:
%s

USER MESSAGE:
%s

REFERENCE SOLUTIONS (for internal reasoning only — DO NOT reveal directly):
%s

IMPORTANT:

ALWAYS RETURN VALID JSON.
NO MARKDOWN. NO EXPLANATION OUTSIDE JSON.

RESPONSE FORMAT:

{
  "reply": "Structured mentor explanation using sections like:\n\n🔹 Idea\n🔹 How to start\n🔹 Key insight\n🔹 Edge cases",
  "approaches": [
    {
      "name": "Approach name",
      "intuition": "Simple intuitive reasoning",
      "steps": "Short step-by-step logic",
      "time": "O(...)",
      "space": "O(...)",
      "example": "Small walkthrough example",
      "code": "Optional short clean snippet"
    }
  ]
}

ALWAYS GENERATE AT LEAST 2 APPROACHES.
`, problemText(problem), formatHistory(history), query, strings.Join(solutions, "\n\n"))

	if forceApproach {
		prompt += `
User is asking for solving guidance.
Generate clear structured approaches with intuition and example.
`
	}
	return prompt
}

// HintPrompt builds the prompt for one rung of the hint ladder
func HintPrompt(problem *models.ProblemData, level int, revealed []string) (string, error) {
	guidance, ok := hintLevels[level]
	if !ok {
		return "", &ValidationError{Field: "level", Reason: fmt.Sprintf("must be between 1 and %d", MaxHintLevel)}
	}

	previous := "None yet."
	if len(revealed) > 0 {
		lines := make([]string, len(revealed))
		for i, h := range revealed {
			lines[i] = fmt.Sprintf("Hint %d: %s", i+1, h)
		}
		previous = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`
You are a DSA mentor giving progressive hints.

LEVEL %d of %d:
%s

Hints already given (do not repeat them, build on them):
%s

Problem:
%s

Return ONLY the hint text.
`, level, MaxHintLevel, guidance, previous, problemText(problem)), nil
}

// ComparatorPrompt asks for a side-by-side comparison of approaches. With no
// approaches supplied the model proposes its own.
func ComparatorPrompt(problem *models.ProblemData, approaches []models.Approach) (string, error) {
	if problemText(problem) == unavailable && len(approaches) == 0 {
		return "", &ValidationError{Field: "problemData", Reason: "a problem or approaches to compare are required"}
	}

	known := "None provided. Propose 2 to 4 realistic approaches, from brute force to optimal."
	if len(approaches) > 0 {
		lines := make([]string, len(approaches))
		for i, a := range approaches {
			lines[i] = fmt.Sprintf("%d. %s (time %s, space %s): %s",
				i+1, a.Name, utils.GetStringOrDefault(a.Time, "?"), utils.GetStringOrDefault(a.Space, "?"), a.Intuition)
		}
		known = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`
You are a DSA mentor comparing solution approaches.

Problem:
%s

Approaches:
%s

Compare them on time and space complexity, implementation difficulty and
risk of bugs. Recommend one for an interview setting.

ALWAYS RETURN VALID JSON. NO MARKDOWN.

{
  "approaches": [
    {"name": "...", "time": "O(...)", "space": "O(...)", "pros": ["..."], "cons": ["..."]}
  ],
  "recommended": "name of the recommended approach",
  "summary": "two or three sentences"
}
`, problemText(problem), known), nil
}

// MistakeRadarPrompt asks for the likely pitfalls in the user's description or
// code
func MistakeRadarPrompt(problem *models.ProblemData, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ValidationError{Field: "text", Reason: "must not be empty"}
	}

	return fmt.Sprintf(`
You are a DSA mentor running a mistake radar.

Look at what the user wrote and name the categories of mistakes they are most
likely to make or have already made. Use short category names such as
"Off-by-one", "Integer overflow", "Missed edge case", "Wrong complexity",
"Mutating while iterating", "Uninitialized state".

Problem:
%s

User input:
%s

ALWAYS RETURN VALID JSON. NO MARKDOWN.

{
  "mistakes": [
    {"category": "...", "description": "what could go wrong here", "fix": "how to avoid it"}
  ]
}
`, problemText(problem), text), nil
}

// ExplainLinesPrompt asks for a line-by-line explanation of a short snippet
func ExplainLinesPrompt(problem *models.ProblemData, code string, maxLines int) (string, error) {
	if maxLines <= 0 {
		maxLines = MaxExplainLines
	}
	if strings.TrimSpace(code) == "" {
		return "", &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	lines := SplitLines(code)
	if len(lines) > maxLines {
		return "", &ValidationError{Field: "code", Reason: fmt.Sprintf("has %d lines, at most %d allowed", len(lines), maxLines)}
	}

	numbered := make([]string, len(lines))
	for i, l := range lines {
		numbered[i] = fmt.Sprintf("%d: %s", i+1, l)
	}

	return fmt.Sprintf(`
You are a DSA mentor explaining code line by line to a learner.

Problem:
%s

Code:
%s

Explain what each non-empty line does and why it is there. Keep each
explanation to one sentence.

ALWAYS RETURN VALID JSON. NO MARKDOWN.

{
  "explanations": [
    {"line": 1, "code": "the line", "explanation": "..."}
  ]
}
`, problemText(problem), strings.Join(numbered, "\n")), nil
}

// SessionSummaryPrompt recaps a practice session
func SessionSummaryPrompt(problem *models.ProblemData, history []models.ChatTurn, hintsUsed, elapsedSeconds int) string {
	return fmt.Sprintf(`
You are a DSA mentor wrapping up a practice session.

Problem:
%s

Time spent: %s
Hints used: %d of %d

Conversation:
%s

Summarise how the session went, what the user did well, what to improve and
what to practise next.

ALWAYS RETURN VALID JSON. NO MARKDOWN.

{
  "summary": "two or three sentences",
  "strengths": ["..."],
  "improvements": ["..."],
  "nextSteps": ["..."]
}
`, problemText(problem), utils.FormatClock(elapsedSeconds), hintsUsed, MaxHintLevel, formatHistory(history))
}

// StuckNudgePrompt asks for a short encouraging nudge after a long stretch
// without progress
func StuckNudgePrompt(problem *models.ProblemData, elapsedSeconds, hintsUsed int) string {
	return fmt.Sprintf(`
You are a supportive DSA mentor. The user has been working on this problem for
%d minutes and has used %d of %d hints.

Problem:
%s

Write one or two encouraging sentences that acknowledge the effort, suggest a
concrete next thing to check and offer a hint. Do not give away the solution.

Return ONLY the message text.
`, elapsedSeconds/60, hintsUsed, MaxHintLevel, problemText(problem))
}

// DefaultNudge is used when no completion is available
func DefaultNudge(elapsedSeconds int) string {
	return fmt.Sprintf("You've been working on this for %d minutes. Would you like a hint to help you progress?", elapsedSeconds/60)
}

// SplitLines splits code into lines, ignoring one trailing newline
func SplitLines(code string) []string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(code, "\n"), "\n")
}

const unavailable = "Not available"

func problemText(problem *models.ProblemData) string {
	return utils.GetStringOrDefault(problem.ProblemText(), unavailable)
}

// formatHistory renders the last HistoryTurns turns as "role: content"
func formatHistory(history []models.ChatTurn) string {
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	return strings.Join(lo.Map(history, func(t models.ChatTurn, _ int) string {
		return fmt.Sprintf("%s: %s", t.Role, t.Content)
	}), "\n")
}
