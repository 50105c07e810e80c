package platform

import (
	"strings"

	"codementor/pkg/models"

	"github.com/PuerkitoBio/goquery"
)

// Partial is what a platform scraper extracts on its own
type Partial struct {
	Title       string
	Description string
}

// Scraper extracts problem metadata from a parsed page of one platform.
// Implementations return zero values for anything they cannot find.
type Scraper interface {
	Platform() models.Platform
	Scrape(doc *goquery.Document) Partial
	Difficulty(doc *goquery.Document) string
}

// Registry is the closed set of platform scrapers
type Registry struct {
	scrapers map[models.Platform]Scraper
}

// NewRegistry builds the registry with every supported platform
func NewRegistry() *Registry {
	r := &Registry{scrapers: make(map[models.Platform]Scraper, len(models.Platforms))}
	for _, s := range []Scraper{leetCode{}, codeforces{}, hackerRank{}, codeChef{}} {
		r.scrapers[s.Platform()] = s
	}
	return r
}

// Get returns the scraper for p, if one is registered
func (r *Registry) Get(p models.Platform) (Scraper, bool) {
	s, ok := r.scrapers[p]
	return s, ok
}

// firstSelection returns the first element matched by the first selector that
// matches anything
func firstSelection(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// firstText is the trimmed text of firstSelection, or ""
func firstText(doc *goquery.Document, selectors ...string) string {
	if s := firstSelection(doc, selectors...); s != nil {
		return strings.TrimSpace(s.Text())
	}
	return ""
}

// firstNonEmptyText skips matched elements whose text is blank
func firstNonEmptyText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func documentTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}
