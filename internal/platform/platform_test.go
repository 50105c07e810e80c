package platform

import (
	"strings"
	"testing"

	"codementor/pkg/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want models.Platform
	}{
		{"https://leetcode.com/problems/two-sum/", models.PlatformLeetCode},
		{"https://codeforces.com/problemset/problem/4/A", models.PlatformCodeforces},
		{"https://www.hackerrank.com/challenges/solve-me-first/problem", models.PlatformHackerRank},
		{"https://www.codechef.com/problems/FLOW001", models.PlatformCodeChef},
		{"https://hackerrank.com/challenges/x", models.PlatformUnknown},
		{"https://leetcode.cn/problems/two-sum/", models.PlatformUnknown},
		{"https://example.com/problems/two-sum", models.PlatformUnknown},
		{"::not a url", models.PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.url))
		})
	}
}

func TestIsProblemPage(t *testing.T) {
	assert.True(t, IsProblemPage(models.PlatformLeetCode, "https://leetcode.com/problems/two-sum/description/"))
	assert.True(t, IsProblemPage(models.PlatformLeetCode, "https://leetcode.com/problems/two-sum/solutions/123/x"))
	assert.False(t, IsProblemPage(models.PlatformLeetCode, "https://leetcode.com/problemset/"))

	assert.True(t, IsProblemPage(models.PlatformCodeforces, "https://codeforces.com/contest/1900/problem/B"))
	assert.True(t, IsProblemPage(models.PlatformCodeforces, "https://codeforces.com/problemset/problem/4/A"))
	assert.False(t, IsProblemPage(models.PlatformCodeforces, "https://codeforces.com/blog/entry/1"))

	assert.True(t, IsProblemPage(models.PlatformHackerRank, "https://www.hackerrank.com/challenges/solve-me-first/problem"))
	assert.True(t, IsProblemPage(models.PlatformCodeChef, "https://www.codechef.com/START100/problems/ABC"))
	assert.False(t, IsProblemPage(models.PlatformUnknown, "https://leetcode.com/problems/two-sum/"))
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	for _, p := range models.Platforms {
		s, ok := r.Get(p)
		require.True(t, ok, p)
		assert.Equal(t, p, s.Platform())
	}

	_, ok := r.Get(models.PlatformUnknown)
	assert.False(t, ok)
}

func TestLeetCode_Scrape(t *testing.T) {
	doc := parse(t, `<html><body>
		<div data-cy="question-title">1. Two Sum</div><div>Easy</div>
		<div class="elfjS">Given an array of integers...</div>
	</body></html>`)

	s, _ := NewRegistry().Get(models.PlatformLeetCode)
	got := s.Scrape(doc)
	assert.Equal(t, "1. Two Sum", got.Title)
	assert.Equal(t, "Given an array of integers...", got.Description)
	assert.Equal(t, models.DifficultyEasy, s.Difficulty(doc))
}

func TestCodeforces_TitleFallsBackToDocumentTitle(t *testing.T) {
	doc := parse(t, `<html><head><title>Problem - 4A - Codeforces</title></head><body>
		<div class="tag-box">math</div><div class="tag-box">*800</div>
	</body></html>`)

	s, _ := NewRegistry().Get(models.PlatformCodeforces)
	assert.Equal(t, "Problem", s.Scrape(doc).Title)
	assert.Equal(t, "Rating: 800", s.Difficulty(doc))
}

func TestCodeforces_DifficultyTag(t *testing.T) {
	doc := parse(t, `<div class="problem-statement"><div class="title">A. Watermelon</div></div>
		<span class="tag-box" title="Difficulty">*1500</span>`)

	s, _ := NewRegistry().Get(models.PlatformCodeforces)
	assert.Equal(t, "A. Watermelon", s.Scrape(doc).Title)
	assert.Equal(t, "Rating: 1500", s.Difficulty(doc))
}

func TestHackerRank_Scrape(t *testing.T) {
	doc := parse(t, `<html><head><title>Solve Simple Array Sum | HackerRank</title></head><body>
		<div class="difficulty-block">Difficulty<p class="difficulty-easy">Easy</p></div>
		<div class="challenge-body-html">Complete the function.</div>
	</body></html>`)

	s, _ := NewRegistry().Get(models.PlatformHackerRank)
	got := s.Scrape(doc)
	assert.Equal(t, "Simple Array Sum", got.Title)
	assert.Equal(t, "Complete the function.", got.Description)
	assert.Equal(t, models.DifficultyEasy, s.Difficulty(doc))
}

func TestCodeChef_Scrape(t *testing.T) {
	doc := parse(t, `<h1 class="problem-title_abc">Add Two Numbers</h1>
		<div class="problem-statement">Shivam is the youngest programmer.</div>
		<span class="difficulty-rating_x">1200</span>`)

	s, _ := NewRegistry().Get(models.PlatformCodeChef)
	got := s.Scrape(doc)
	assert.Equal(t, "Add Two Numbers", got.Title)
	assert.Equal(t, "Shivam is the youngest programmer.", got.Description)
	assert.Equal(t, "Rating: 1200", s.Difficulty(doc))
}

func TestScrapers_EmptyDocument(t *testing.T) {
	doc := parse(t, `<html><body></body></html>`)
	r := NewRegistry()

	for _, p := range models.Platforms {
		s, _ := r.Get(p)
		assert.NotPanics(t, func() {
			got := s.Scrape(doc)
			assert.Empty(t, got.Description)
			assert.Equal(t, models.DifficultyUnknown, s.Difficulty(doc))
		}, p)
	}
}

func TestCanonicalDifficulty(t *testing.T) {
	assert.Equal(t, "Easy", CanonicalDifficulty(" easy "))
	assert.Equal(t, "Hard", CanonicalDifficulty("Hard"))
	assert.Equal(t, "Unknown", CanonicalDifficulty("DifficultyEasy"))
	assert.Equal(t, "Unknown", CanonicalDifficulty(".css-1x{color:red}"))
	assert.Equal(t, "Rating: 1900", CanonicalDifficulty("*1900"))
	assert.Equal(t, "Rating: 1900", CanonicalDifficulty("Rating: *1900"))
	assert.Equal(t, "Unknown", CanonicalDifficulty(""))
}
