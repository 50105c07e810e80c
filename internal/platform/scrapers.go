package platform

import (
	"regexp"
	"strings"

	"codementor/pkg/models"

	"github.com/PuerkitoBio/goquery"
)

type leetCode struct{}

func (leetCode) Platform() models.Platform { return models.PlatformLeetCode }

func (leetCode) Scrape(doc *goquery.Document) Partial {
	return Partial{
		Title:       firstText(doc, `[data-cy="question-title"]`, ".text-title-large"),
		Description: firstText(doc, `[data-cy="question-content"]`, ".elfjS"),
	}
}

func (leetCode) Difficulty(doc *goquery.Document) string {
	return CanonicalDifficulty(firstText(doc,
		`[data-cy="question-title"] ~ div`,
		".text-difficulty-easy",
		".text-difficulty-medium",
		".text-difficulty-hard",
	))
}

type codeforces struct{}

var titleSuffix = regexp.MustCompile(`[-|].*$`)

func (codeforces) Platform() models.Platform { return models.PlatformCodeforces }

func (codeforces) Scrape(doc *goquery.Document) Partial {
	title := firstNonEmptyText(doc, ".problem-statement .title", ".problem-header .title")
	if title == "" {
		title = strings.TrimSpace(titleSuffix.ReplaceAllString(documentTitle(doc), ""))
	}
	return Partial{
		Title:       title,
		Description: firstText(doc, ".problem-statement"),
	}
}

func (codeforces) Difficulty(doc *goquery.Document) string {
	if tag := firstText(doc, `.tag-box[title="Difficulty"]`); tag != "" {
		return CanonicalDifficulty(tag)
	}

	difficulty := models.DifficultyUnknown
	doc.Find(".tag-box").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, "*") {
			if d := CanonicalDifficulty(text); d != models.DifficultyUnknown {
				difficulty = d
				return false
			}
		}
		return true
	})
	return difficulty
}

type hackerRank struct{}

var (
	hackerRankSuffix = regexp.MustCompile(`\|\s*HackerRank\s*$`)
	solvePrefix      = regexp.MustCompile(`(?i)^Solve\s+`)
)

func (hackerRank) Platform() models.Platform { return models.PlatformHackerRank }

func (hackerRank) Scrape(doc *goquery.Document) Partial {
	var title string
	if s := firstSelection(doc,
		".challenge-page-label-wrapper h1",
		"h1.page-label",
		`[class*="challenge-header"] h1`,
		".ui-icon-label",
	); s != nil {
		title = strings.TrimSpace(s.Text())
	} else {
		title = hackerRankSuffix.ReplaceAllString(documentTitle(doc), "")
		title = strings.TrimSpace(solvePrefix.ReplaceAllString(title, ""))
	}

	return Partial{
		Title:       title,
		Description: firstText(doc, ".challenge-body-html", `[class*="challenge-body"]`, ".problem-description"),
	}
}

// Difficulty reads the level-specific <p>, not its container, whose text
// concatenates the label ("DifficultyEasy")
func (hackerRank) Difficulty(doc *goquery.Document) string {
	return CanonicalDifficulty(firstText(doc,
		`p[class*="difficulty-easy"]`,
		`p[class*="difficulty-medium"]`,
		`p[class*="difficulty-hard"]`,
		`[class*="difficulty"] .pull-right`,
	))
}

// codeChef selectors target the hydrated React DOM
type codeChef struct{}

func (codeChef) Platform() models.Platform { return models.PlatformCodeChef }

func (codeChef) Scrape(doc *goquery.Document) Partial {
	return Partial{
		Title: firstText(doc,
			`h1[class*="title"]`,
			".problem-name h1",
			`[class*="ProblemPage"] h1`,
			`[class*="problem-title"]`,
			"h1",
		),
		Description: firstText(doc,
			".problem-statement",
			`[class*="problem-statement"]`,
			".statement-body",
			`[class*="ProblemStatement"]`,
		),
	}
}

func (codeChef) Difficulty(doc *goquery.Document) string {
	return CanonicalDifficulty(firstText(doc,
		`[class*="difficulty-rating"]`,
		`[class*="DifficultyRating"]`,
		".problem-difficulty",
		`[class*="difficulty"]`,
	))
}
