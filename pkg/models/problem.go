package models

// Platform identifies a supported competitive-programming site
type Platform string

const (
	PlatformLeetCode   Platform = "leetcode"
	PlatformCodeforces Platform = "codeforces"
	PlatformHackerRank Platform = "hackerrank"
	PlatformCodeChef   Platform = "codechef"
	PlatformUnknown    Platform = "unknown"
)

// Platforms lists the closed set of supported platforms, in display order
var Platforms = []Platform{
	PlatformLeetCode,
	PlatformCodeforces,
	PlatformHackerRank,
	PlatformCodeChef,
}

// IsKnown reports whether p is one of the supported platforms
func (p Platform) IsKnown() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Canonical difficulty labels
const (
	DifficultyEasy    = "Easy"
	DifficultyMedium  = "Medium"
	DifficultyHard    = "Hard"
	DifficultyUnknown = "Unknown"
)

// ProblemData is the result of scraping one problem page.
// ScrapedSolutions is never nil; FullProblemText is nil when no statement
// selector matched or the matched text was empty.
type ProblemData struct {
	Platform         Platform `json:"platform" validate:"omitempty,platform"`
	URL              string   `json:"url" validate:"required"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Difficulty       string   `json:"difficulty"`
	FullProblemText  *string  `json:"fullProblemText"`
	ScrapedSolutions []string `json:"scrapedSolutions"`
}

// NewProblemData returns the minimal default record for a page
func NewProblemData(platform Platform, url string) *ProblemData {
	return &ProblemData{
		Platform:         platform,
		URL:              url,
		Difficulty:       DifficultyUnknown,
		ScrapedSolutions: []string{},
	}
}

// ProblemText returns the richest statement text available
func (p *ProblemData) ProblemText() string {
	if p == nil {
		return ""
	}
	if p.FullProblemText != nil && *p.FullProblemText != "" {
		return *p.FullProblemText
	}
	return p.Description
}
