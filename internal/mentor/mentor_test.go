package mentor

import (
	"fmt"
	"strings"
	"testing"

	"codementor/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAugmentQuery_NothingToAdd(t *testing.T) {
	msg := "How do I start?  \n"
	assert.Equal(t, msg, AugmentQuery(msg, nil, nil))
	assert.Equal(t, msg, AugmentQuery(msg, nil, []string{}))
	assert.Equal(t, msg, AugmentQuery(msg, strPtr(""), nil))
}

func TestAugmentQuery_Sections(t *testing.T) {
	got := AugmentQuery("help", strPtr("Two Sum statement"), []string{"code a", "code b"})

	want := "help" +
		"\n\nFULL PROBLEM DESCRIPTION:\nTwo Sum statement" +
		"\n\nREFERENCE CODE (internal use only — do NOT reproduce verbatim to user):\n" +
		"Use these to verify your reasoning and ensure accuracy on hard problems.\n\n" +
		"[Solution 1]\ncode a\n\n[Solution 2]\ncode b"
	assert.Equal(t, want, got)
}

func TestAugmentQuery_SolutionsOnly(t *testing.T) {
	got := AugmentQuery("help", nil, []string{"x"})
	assert.NotContains(t, got, "FULL PROBLEM DESCRIPTION")
	assert.Contains(t, got, "[Solution 1]\nx")
}

func TestWantsApproach(t *testing.T) {
	assert.True(t, WantsApproach("How should I START?"))
	assert.True(t, WantsApproach("is there a better idea"))
	assert.False(t, WantsApproach("thanks!"))
}

func TestQueryPrompt(t *testing.T) {
	problem := models.NewProblemData(models.PlatformLeetCode, "https://leetcode.com/problems/two-sum/")
	problem.Description = "short description"
	problem.FullProblemText = strPtr("full statement")
	problem.ScrapedSolutions = []string{"s1", "s2", "s3", "s4"}

	var history []models.ChatTurn
	for i := 0; i < 12; i++ {
		history = append(history, models.ChatTurn{Role: models.RoleUser, Content: fmt.Sprintf("turn-%02d", i)})
	}

	got := QueryPrompt(problem, history, "where do I begin", true)
	assert.Contains(t, got, "PROBLEM:\nfull statement")
	assert.NotContains(t, got, "turn-01")
	assert.Contains(t, got, "user: turn-02")
	assert.Contains(t, got, "user: turn-11")
	assert.Contains(t, got, "s3")
	assert.NotContains(t, got, "s4")
	assert.Contains(t, got, "User is asking for solving guidance.")

	plain := QueryPrompt(nil, nil, "hi", false)
	assert.Contains(t, plain, "PROBLEM:\nNot available")
	assert.NotContains(t, plain, "solving guidance")
}

func TestHintPrompt(t *testing.T) {
	for level := 1; level <= MaxHintLevel; level++ {
		got, err := HintPrompt(nil, level, []string{"look at sums"})
		require.NoError(t, err)
		assert.Contains(t, got, fmt.Sprintf("LEVEL %d of 4", level))
		assert.Contains(t, got, "Hint 1: look at sums")
	}

	for _, level := range []int{0, 5, -1} {
		_, err := HintPrompt(nil, level, nil)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "level", vErr.Field)
	}
}

func TestExplainLinesPrompt(t *testing.T) {
	code := strings.Repeat("x = 1\n", 30)
	got, err := ExplainLinesPrompt(nil, code, 0)
	require.NoError(t, err)
	assert.Contains(t, got, "30: x = 1")

	_, err = ExplainLinesPrompt(nil, code+"y = 2\n", 0)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "31 lines")

	_, err = ExplainLinesPrompt(nil, "  \n", 0)
	assert.ErrorAs(t, err, &vErr)
}

func TestMistakeRadarPrompt_RequiresText(t *testing.T) {
	_, err := MistakeRadarPrompt(nil, " ")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestComparatorPrompt(t *testing.T) {
	_, err := ComparatorPrompt(nil, nil)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	got, err := ComparatorPrompt(nil, []models.Approach{{Name: "Hash map", Time: "O(n)"}})
	require.NoError(t, err)
	assert.Contains(t, got, "1. Hash map (time O(n), space ?)")
}

func TestSessionSummaryAndNudgePrompts(t *testing.T) {
	summary := SessionSummaryPrompt(nil, []models.ChatTurn{{Role: models.RoleAssistant, Content: "try a map"}}, 2, 754)
	assert.Contains(t, summary, "Time spent: 12:34")
	assert.Contains(t, summary, "Hints used: 2 of 4")
	assert.Contains(t, summary, "assistant: try a map")

	nudge := StuckNudgePrompt(nil, 1860, 1)
	assert.Contains(t, nudge, "31 minutes")
}

func TestParseQuery(t *testing.T) {
	got := ParseQuery(`{"reply":"hi","approaches":[{"name":"A"}]}`)
	assert.Equal(t, "hi", got.Reply)
	assert.Equal(t, []models.Approach{{Name: "A"}}, got.Approaches)

	got = ParseQuery("plain text")
	assert.Equal(t, "plain text", got.Reply)
	assert.Equal(t, []models.Approach{}, got.Approaches)
}

func TestParseComparison(t *testing.T) {
	c := ParseComparison(`{"approaches":[{"name":"Sort","time":"O(n log n)","space":"O(1)","pros":["simple"],"cons":[]}],"recommended":"Sort","summary":"ok"}`)
	require.Len(t, c.Approaches, 1)
	assert.Equal(t, "Sort", c.Recommended)

	c = ParseComparison("they are all fine")
	assert.Empty(t, c.Approaches)
	assert.Equal(t, "they are all fine", c.Summary)
}

func TestParseMistakes_FallsBackToClassifier(t *testing.T) {
	report := ParseMistakes("not json", "I use a nested loop and never check for empty input")
	categories := make([]string, len(report.Categories))
	for i, m := range report.Categories {
		categories[i] = m.Category
	}
	assert.Contains(t, categories, "Missed edge case")
	assert.Contains(t, categories, "Wrong complexity")

	report = ParseMistakes(`{"mistakes":[{"category":"Off-by-one","description":"d"}]}`, "")
	assert.Equal(t, []models.Mistake{{Category: "Off-by-one", Description: "d"}}, report.Categories)
}

func TestClassifyMistakes_NeverNil(t *testing.T) {
	got := ClassifyMistakes("hello there")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseLineExplanations(t *testing.T) {
	got := ParseLineExplanations(`{"explanations":[{"line":1,"code":"x = 1","explanation":"assigns"}]}`, "x = 1")
	assert.Equal(t, "assigns", got[0].Explanation)

	got = ParseLineExplanations("It sets x.", "x = 1\ny = 2")
	require.Len(t, got, 1)
	assert.Equal(t, "x = 1", got[0].Code)
	assert.Equal(t, "It sets x.", got[0].Explanation)
}

func TestParseSessionSummary(t *testing.T) {
	s := ParseSessionSummary("Nice work.", 3, 900)
	assert.Equal(t, "Nice work.", s.Summary)
	assert.Equal(t, 3, s.HintsUsed)
	assert.Equal(t, 900, s.ElapsedSeconds)
	assert.NotNil(t, s.NextSteps)
}

func TestParseNudge(t *testing.T) {
	assert.Equal(t, "Keep going!", ParseNudge(" Keep going! ", 1800).Message)
	assert.Equal(t, "You've been working on this for 30 minutes. Would you like a hint to help you progress?", ParseNudge("", 1800).Message)
}
