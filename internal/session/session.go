package session

import (
	"errors"
	"fmt"
	"time"

	"codementor/internal/mentor"
	"codementor/pkg/models"
	"codementor/pkg/utils"
)

const (
	// maxStoredTurns bounds the transcript kept per session
	maxStoredTurns = 50
	// unlockAfter is the time on a problem that earns the time bonus
	unlockAfter = 600
)

// ErrNoHintsLeft is returned once every rung of the hint ladder is revealed
var ErrNoHintsLeft = errors.New("all hints used for this problem")

// Session is the explicit mentoring state of one user on one problem.
// Handlers receive it by pointer; nothing about it lives in package globals.
type Session struct {
	ID             string              `json:"id"`
	ProblemURL     string              `json:"problemUrl"`
	Problem        *models.ProblemData `json:"problem,omitempty"`
	ChatHistory    []models.ChatTurn   `json:"chatHistory"`
	HintsUsed      int                 `json:"hintsUsed"`
	RevealedHints  []string            `json:"revealedHints"`
	SecondsElapsed int                 `json:"secondsElapsed"`
	Approaches     []models.Approach   `json:"approaches"`
	StartedAt      time.Time           `json:"startedAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	NudgedAt       *time.Time          `json:"nudgedAt,omitempty"`
	PendingNudge   string              `json:"pendingNudge,omitempty"`
}

// New creates an empty session. An empty id gets a generated one.
func New(id string, now time.Time) *Session {
	if id == "" {
		id = utils.GenerateRequestID()
	}
	return &Session{
		ID:            id,
		ChatHistory:   []models.ChatTurn{},
		RevealedHints: []string{},
		Approaches:    []models.Approach{},
		StartedAt:     now,
		UpdatedAt:     now,
	}
}

// Observe records the problem currently on screen. Moving to a different
// problem URL resets hints, timer, transcript and approaches; it reports
// whether that happened.
func (s *Session) Observe(problem *models.ProblemData, now time.Time) bool {
	if problem == nil {
		return false
	}
	reset := problem.URL != s.ProblemURL
	if reset {
		s.ProblemURL = problem.URL
		s.ChatHistory = []models.ChatTurn{}
		s.HintsUsed = 0
		s.RevealedHints = []string{}
		s.SecondsElapsed = 0
		s.Approaches = []models.Approach{}
		s.StartedAt = now
		s.NudgedAt = nil
		s.PendingNudge = ""
	}
	s.Problem = problem
	s.Touch(now)
	return reset
}

// Restore resumes saved per-problem progress
func (s *Session) Restore(p *Progress, now time.Time) {
	if p == nil {
		return
	}
	s.HintsUsed = p.HintsUsed
	s.RevealedHints = append([]string{}, p.RevealedHints...)
	if p.Approaches != nil {
		s.Approaches = append([]models.Approach{}, p.Approaches...)
	}
	s.StartedAt = now.Add(-time.Duration(p.SecondsElapsed) * time.Second)
	s.Touch(now)
}

// Touch refreshes the elapsed counter
func (s *Session) Touch(now time.Time) {
	s.SecondsElapsed = s.Elapsed(now)
	s.UpdatedAt = now
}

// Elapsed is the number of seconds spent on the current problem
func (s *Session) Elapsed(now time.Time) int {
	if s.StartedAt.IsZero() || now.Before(s.StartedAt) {
		return 0
	}
	return int(now.Sub(s.StartedAt).Seconds())
}

// AddTurn appends a chat turn, keeping the newest maxStoredTurns
func (s *Session) AddTurn(role models.ChatRole, content string) {
	s.ChatHistory = append(s.ChatHistory, models.ChatTurn{Role: role, Content: content})
	if len(s.ChatHistory) > maxStoredTurns {
		s.ChatHistory = s.ChatHistory[len(s.ChatHistory)-maxStoredTurns:]
	}
}

// History returns the last n turns
func (s *Session) History(n int) []models.ChatTurn {
	if n <= 0 || len(s.ChatHistory) <= n {
		return s.ChatHistory
	}
	return s.ChatHistory[len(s.ChatHistory)-n:]
}

// NextHintLevel is the rung the next hint request should reveal
func (s *Session) NextHintLevel(maxHints int) (int, error) {
	if s.HintsUsed >= maxHints {
		return 0, ErrNoHintsLeft
	}
	return s.HintsUsed + 1, nil
}

// RevealHint records the hint text of the next rung. Rungs are revealed in
// order so RevealedHints[i] is always the text of level i+1.
func (s *Session) RevealHint(level int, hint string) error {
	if level != s.HintsUsed+1 {
		return &mentor.ValidationError{
			Field:  "level",
			Reason: fmt.Sprintf("hints are revealed in order, next is level %d", s.HintsUsed+1),
		}
	}
	s.HintsUsed = level
	s.RevealedHints = append(s.RevealedHints, hint)
	return nil
}

// RevealedHint returns the stored text of an already revealed rung
func (s *Session) RevealedHint(level int) (string, bool) {
	if level < 1 || level > s.HintsUsed || level > len(s.RevealedHints) {
		return "", false
	}
	return s.RevealedHints[level-1], true
}

// HintsRemaining is how many rungs are still hidden
func (s *Session) HintsRemaining(maxHints int) int {
	if s.HintsUsed >= maxHints {
		return 0
	}
	return maxHints - s.HintsUsed
}

// UnlockProgress scores engagement on a 0-100 scale: 5 per chat turn, 10 per
// hint and 20 once more than ten minutes were spent
func (s *Session) UnlockProgress(now time.Time) int {
	score := 5*len(s.ChatHistory) + 10*s.HintsUsed
	if s.Elapsed(now) > unlockAfter {
		score += 20
	}
	return min(score, 100)
}

// Progress snapshots what is persisted per problem URL
func (s *Session) Progress(now time.Time) *Progress {
	return &Progress{
		HintsUsed:      s.HintsUsed,
		SecondsElapsed: s.Elapsed(now),
		RevealedHints:  append([]string{}, s.RevealedHints...),
		Approaches:     append([]models.Approach{}, s.Approaches...),
		ChatCount:      len(s.ChatHistory),
		LastUpdated:    now.UnixMilli(),
	}
}

// Progress is the per-problem record kept across sessions
type Progress struct {
	HintsUsed      int               `json:"hintsUsed"`
	SecondsElapsed int               `json:"secondsElapsed"`
	RevealedHints  []string          `json:"revealedHints"`
	Approaches     []models.Approach `json:"approaches"`
	ChatCount      int               `json:"chatCount"`
	LastUpdated    int64             `json:"lastUpdated"`
}

// Settings is the global preferences record
type Settings struct {
	AutoAnalyze   bool   `json:"autoAnalyze"`
	HintLevel     string `json:"hintLevel"`
	DarkMode      bool   `json:"darkMode"`
	TotalSessions int    `json:"totalSessions"`
}

// DefaultSettings are written on first use
func DefaultSettings() *Settings {
	return &Settings{
		AutoAnalyze: true,
		HintLevel:   "gentle",
	}
}
