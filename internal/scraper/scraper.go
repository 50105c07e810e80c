package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"codementor/internal/logging/types"
	"codementor/internal/platform"
	"codementor/internal/scraper/fetch"
	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

const maxTabSolutions = 3

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	blankRunsPattern = regexp.MustCompile(`\n{3,}`)
)

// fullTextSelectors are tried in order; the first element found wins even if
// its text turns out empty
var fullTextSelectors = map[models.Platform][]string{
	models.PlatformLeetCode:   {".elfjS", ".xFUwe"},
	models.PlatformCodeforces: {".problem-statement"},
	models.PlatformHackerRank: {".challenge-text-body"},
	models.PlatformCodeChef:   {".problem-statement"},
}

// SettleDelay is how long a page of platform p needs after load before its
// DOM is worth reading. Client-rendered sites need longer.
func SettleDelay(p models.Platform) time.Duration {
	switch p {
	case models.PlatformCodeChef:
		return 1200 * time.Millisecond
	case models.PlatformHackerRank:
		return 800 * time.Millisecond
	default:
		return 300 * time.Millisecond
	}
}

// Registry looks up the platform scraper for a detected platform.
// *platform.Registry is the production implementation.
type Registry interface {
	Get(p models.Platform) (platform.Scraper, bool)
}

// Scraper assembles ProblemData from a page
type Scraper struct {
	registry Registry
	fetcher  fetch.Fetcher
	timeout  time.Duration
	logger   types.Logger
}

// New creates a page scraper. fetcher may be nil when only DOM snapshots are
// scraped.
func New(registry Registry, fetcher fetch.Fetcher, timeout time.Duration, logger types.Logger) *Scraper {
	return &Scraper{
		registry: registry,
		fetcher:  fetcher,
		timeout:  timeout,
		logger:   logger.WithField("component", "page_scraper"),
	}
}

// Engine names the fetch engine, or "snapshot" when none is configured
func (s *Scraper) Engine() string {
	if s.fetcher == nil {
		return "snapshot"
	}
	return s.fetcher.Name()
}

// FetchStats reports per-domain limiter state when the fetcher tracks it
func (s *Scraper) FetchStats() (map[string]map[string]interface{}, bool) {
	st, ok := s.fetcher.(interface {
		Stats() map[string]map[string]interface{}
	})
	if !ok {
		return nil, false
	}
	return st.Stats(), true
}

// ScrapeURL fetches rawURL through the configured engine and scrapes it.
// Pages that are not problem pages are reported without being fetched.
func (s *Scraper) ScrapeURL(ctx context.Context, rawURL string) (*models.ProblemData, error) {
	p := platform.Detect(rawURL)
	if !platform.IsProblemPage(p, rawURL) {
		s.logger.Debug("Not a problem page, skipping fetch", map[string]interface{}{
			"url":      rawURL,
			"platform": string(p),
		})
		return models.NewProblemData(p, rawURL), nil
	}
	if s.fetcher == nil {
		return nil, utils.NewInternalServerError("no fetch engine configured")
	}

	start := time.Now()
	page, err := s.fetcher.Fetch(ctx, fetch.Request{
		URL:     rawURL,
		Settle:  SettleDelay(p),
		Timeout: s.timeout,
	})
	if err != nil {
		s.logger.Error("Page fetch failed", map[string]interface{}{
			"url":    rawURL,
			"engine": s.fetcher.Name(),
			"error":  err.Error(),
		})
		return nil, err
	}

	data, err := s.ScrapeHTML(rawURL, page.HTML)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Problem page scraped", map[string]interface{}{
		"url":       rawURL,
		"platform":  string(data.Platform),
		"engine":    page.Engine,
		"title":     data.Title,
		"solutions": len(data.ScrapedSolutions),
		"full_text": data.FullProblemText != nil,
		"duration":  utils.FormatDuration(time.Since(start)),
	})
	return data, nil
}

// ScrapeHTML scrapes a DOM snapshot of rawURL
func (s *Scraper) ScrapeHTML(rawURL, html string) (*models.ProblemData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, utils.NewScrapingError(fmt.Sprintf("failed to parse HTML: %v", err))
	}
	return s.Scrape(rawURL, doc), nil
}

// Scrape builds the ProblemData for a parsed page. It never fails: every
// extraction step is isolated and a failing step only leaves its fields empty.
func (s *Scraper) Scrape(rawURL string, doc *goquery.Document) *models.ProblemData {
	p := platform.Detect(rawURL)
	data := models.NewProblemData(p, rawURL)
	if !platform.IsProblemPage(p, rawURL) {
		return data
	}

	s.guard("platform_scrape", rawURL, func() {
		scraper, ok := s.registry.Get(p)
		if !ok {
			return
		}
		partial := scraper.Scrape(doc)
		data.Title = partial.Title
		data.Description = partial.Description
		data.Difficulty = scraper.Difficulty(doc)
	})

	data.FullProblemText = s.FullProblemText(p, doc)
	data.ScrapedSolutions = s.Solutions(p, rawURL, doc)
	return data
}

// FullProblemText extracts the complete statement. It returns nil when no
// selector matches or the matched element has no text.
func (s *Scraper) FullProblemText(p models.Platform, doc *goquery.Document) (text *string) {
	s.guard("full_problem_text", string(p), func() {
		selectors, ok := fullTextSelectors[p]
		if !ok {
			return
		}

		var el *goquery.Selection
		for _, sel := range selectors {
			if found := doc.Find(sel).First(); found.Length() > 0 {
				el = found
				break
			}
		}
		if el == nil {
			s.logger.Debug("Full problem text selector not found", map[string]interface{}{"platform": string(p)})
			return
		}

		raw := el.Text()
		if strings.TrimSpace(raw) == "" {
			s.logger.Debug("Full problem text element is empty", map[string]interface{}{"platform": string(p)})
			return
		}
		cleaned := CleanProblemText(raw)
		text = &cleaned
	})
	return text
}

// Solutions collects visible solution code: the active editor, plus up to
// three code blocks when rawURL is a solutions listing. Never nil.
func (s *Scraper) Solutions(p models.Platform, rawURL string, doc *goquery.Document) []string {
	solutions := []string{}

	s.guard("editor_solution", rawURL, func() {
		if code := editorCode(p, doc); code != "" {
			solutions = append(solutions, code)
		}
	})

	if strings.Contains(rawURL, "/solutions/") {
		s.guard("solutions_tab", rawURL, func() {
			scraped := 0
			doc.Find("pre > code, .view-lines").EachWithBreak(func(_ int, block *goquery.Selection) bool {
				if scraped >= maxTabSolutions {
					return false
				}
				var code string
				if block.HasClass("view-lines") {
					code = monacoText(block)
				} else {
					code = strings.TrimSpace(block.Text())
				}
				if code != "" {
					solutions = append(solutions, code)
					scraped++
				}
				return true
			})
		})
	}

	return lo.Filter(solutions, func(code string, _ int) bool {
		return strings.TrimSpace(code) != ""
	})
}

// CleanProblemText strips markup remnants, collapses runs of blank lines to
// one and trims
func CleanProblemText(raw string) string {
	text := tagPattern.ReplaceAllString(raw, "")
	text = blankRunsPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func editorCode(p models.Platform, doc *goquery.Document) string {
	switch p {
	case models.PlatformLeetCode:
		if lines := doc.Find(".view-lines").First(); lines.Length() > 0 {
			return monacoText(lines)
		}
	case models.PlatformCodeforces:
		return strings.TrimSpace(doc.Find("#sourceCodeTextarea").First().Text())
	case models.PlatformHackerRank, models.PlatformCodeChef:
		return strings.TrimSpace(doc.Find(".CodeMirror-code").First().Text())
	}
	return ""
}

// monacoText reads a Monaco .view-lines container one rendered line at a
// time. Token spans nest, so containers without .view-line children fall back
// to leaf spans.
func monacoText(container *goquery.Selection) string {
	var lines []string
	container.Find(".view-line").Each(func(_ int, line *goquery.Selection) {
		lines = append(lines, line.Text())
	})
	if len(lines) == 0 {
		container.Find("span").Each(func(_ int, span *goquery.Selection) {
			if span.Children().Filter("span").Length() == 0 {
				lines = append(lines, span.Text())
			}
		})
	}
	text := strings.Join(lines, "\n")
	return strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
}

// guard runs step, converting a panic into a logged scrape failure
func (s *Scraper) guard(step, target string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scrape step failed", map[string]interface{}{
				"step":   step,
				"target": target,
				"panic":  fmt.Sprintf("%v", r),
			})
		}
	}()
	fn()
}
