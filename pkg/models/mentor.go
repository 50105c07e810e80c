package models

// Approach is one solution strategy proposed by the mentor
type Approach struct {
	Name      string `json:"name"`
	Intuition string `json:"intuition,omitempty"`
	Steps     string `json:"steps,omitempty"`
	Time      string `json:"time,omitempty"`
	Space     string `json:"space,omitempty"`
	Example   string `json:"example,omitempty"`
	Code      string `json:"code,omitempty"`
}

// ChatRole is the author of a chat turn
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one entry of the transcript
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ApproachComparison is one row of the comparator table
type ApproachComparison struct {
	Name  string   `json:"name"`
	Time  string   `json:"time"`
	Space string   `json:"space"`
	Pros  []string `json:"pros"`
	Cons  []string `json:"cons"`
}

// Comparison is the approach comparator result
type Comparison struct {
	Approaches  []ApproachComparison `json:"approaches"`
	Recommended string               `json:"recommended"`
	Summary     string               `json:"summary"`
}

// Mistake is one pitfall category surfaced by the mistake radar
type Mistake struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Fix         string `json:"fix,omitempty"`
}

// LineExplanation explains one line of a code snippet
type LineExplanation struct {
	Line        int    `json:"line"`
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// SessionSummary recaps a practice session
type SessionSummary struct {
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	NextSteps      []string `json:"nextSteps"`
	HintsUsed      int      `json:"hintsUsed"`
	ElapsedSeconds int      `json:"elapsedSeconds"`
}
