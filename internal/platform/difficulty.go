package platform

import (
	"regexp"
	"strings"

	"codementor/pkg/models"
)

var ratingPattern = regexp.MustCompile(`^\*?(\d{3,4})$`)

// CanonicalDifficulty narrows scraped difficulty text to Easy, Medium, Hard,
// "Rating: N" or Unknown. Container text such as "DifficultyEasy" is rejected.
func CanonicalDifficulty(raw string) string {
	raw = strings.TrimSpace(raw)

	switch strings.ToLower(raw) {
	case "easy":
		return models.DifficultyEasy
	case "medium":
		return models.DifficultyMedium
	case "hard":
		return models.DifficultyHard
	}

	if rest, ok := strings.CutPrefix(raw, "Rating:"); ok {
		raw = strings.TrimSpace(rest)
	}
	if m := ratingPattern.FindStringSubmatch(raw); m != nil {
		return Rating(m[1])
	}
	return models.DifficultyUnknown
}

// Rating formats a Codeforces problem rating
func Rating(n string) string {
	return "Rating: " + n
}
