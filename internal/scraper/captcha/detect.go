package captcha

import (
	"regexp"
	"strings"
)

// Kind classifies a detected challenge
type Kind string

const (
	KindNone       Kind = ""
	KindRecaptcha  Kind = "recaptcha"
	KindTurnstile  Kind = "turnstile"
	KindCloudflare Kind = "cloudflare" // interstitial without a solvable widget
)

// Challenge describes a challenge found in a page
type Challenge struct {
	Kind    Kind
	SiteKey string
}

// Solvable reports whether a solver can produce a token for the challenge
func (c Challenge) Solvable() bool {
	return c.SiteKey != "" && (c.Kind == KindRecaptcha || c.Kind == KindTurnstile)
}

var (
	recaptchaKeyPatterns = compileAll(
		`class="[^"]*g-recaptcha[^"]*"[^>]*data-sitekey="([^"]+)"`,
		`data-sitekey="([^"]+)"[^>]*class="[^"]*g-recaptcha`,
		`grecaptcha\.render\([^)]*sitekey['"]?\s*:\s*['"]([^'"]+)['"]`,
	)

	turnstileKeyPatterns = compileAll(
		`<div[^>]*class="[^"]*cf-turnstile[^"]*"[^>]*data-sitekey="([^"]+)"`,
		`<div[^>]*data-sitekey="([^"]+)"[^>]*class="[^"]*cf-turnstile[^"]*"`,
		`turnstile\.render\([^)]*sitekey['"]?\s*:\s*['"]([^'"]+)['"]`,
		`challenges\.cloudflare\.com/cdn-cgi/challenge-platform/[^"]*/(0x[0-9a-zA-Z_-]+)/`,
		`challenges\.cloudflare\.com[^"]*/(0x[0-9a-zA-Z_-]{20,})`,
	)

	// Markers of an interstitial. Generic words such as "cloudflare" or
	// "ray id" appear in footers of normal pages and are not used.
	interstitialMarkers = []string{
		"cf-challenge",
		"just a moment...",
		"checking your browser",
		"please wait while we verify",
		"cf-browser-verification",
		"__cf_chl_",
		"challenge-platform",
	}
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Detect inspects page HTML for a captcha or bot-check interstitial
func Detect(html string) Challenge {
	lower := strings.ToLower(html)

	if strings.Contains(lower, "cf-turnstile") || strings.Contains(lower, "turnstile.render") {
		if key := firstSubmatch(html, turnstileKeyPatterns); key != "" {
			return Challenge{Kind: KindTurnstile, SiteKey: key}
		}
	}

	if strings.Contains(lower, "g-recaptcha") || strings.Contains(lower, "grecaptcha") {
		if key := firstSubmatch(html, recaptchaKeyPatterns); key != "" {
			return Challenge{Kind: KindRecaptcha, SiteKey: key}
		}
	}

	for _, marker := range interstitialMarkers {
		if strings.Contains(lower, marker) {
			if key := firstSubmatch(html, turnstileKeyPatterns); key != "" {
				return Challenge{Kind: KindTurnstile, SiteKey: key}
			}
			return Challenge{Kind: KindCloudflare}
		}
	}

	return Challenge{}
}

// Resolved reports whether html no longer looks like a challenge page
func Resolved(html string) bool {
	return Detect(html).Kind == KindNone
}

func firstSubmatch(html string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(html); len(m) > 1 {
			if key := strings.TrimSpace(m[1]); len(key) > 10 {
				return key
			}
		}
	}
	return ""
}
