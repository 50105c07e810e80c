package platform

import (
	"net/url"
	"regexp"

	"codementor/pkg/models"
)

// hosts is matched exactly; subdomains such as leetcode.cn or m.codeforces.com
// are not supported
var hosts = map[string]models.Platform{
	"leetcode.com":       models.PlatformLeetCode,
	"codeforces.com":     models.PlatformCodeforces,
	"www.hackerrank.com": models.PlatformHackerRank,
	"www.codechef.com":   models.PlatformCodeChef,
}

var problemPaths = map[models.Platform][]*regexp.Regexp{
	models.PlatformLeetCode: {
		regexp.MustCompile(`^/problems/[^/]+`),
	},
	models.PlatformCodeforces: {
		regexp.MustCompile(`^/problemset/problem/\d+/[A-Za-z0-9]+`),
		regexp.MustCompile(`^/(contest|gym)/\d+/problem/[A-Za-z0-9]+`),
	},
	models.PlatformHackerRank: {
		regexp.MustCompile(`^/challenges/[^/]+`),
		regexp.MustCompile(`^/contests/[^/]+/challenges/[^/]+`),
	},
	models.PlatformCodeChef: {
		regexp.MustCompile(`^/problems/[A-Za-z0-9_]+`),
		regexp.MustCompile(`^/[A-Za-z0-9_]+/problems/[A-Za-z0-9_]+`),
	},
}

// Detect maps a page URL to its platform by exact hostname
func Detect(rawURL string) models.Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.PlatformUnknown
	}
	if p, ok := hosts[u.Hostname()]; ok {
		return p
	}
	return models.PlatformUnknown
}

// Host returns the hostname a platform is detected on
func Host(p models.Platform) string {
	for host, candidate := range hosts {
		if candidate == p {
			return host
		}
	}
	return ""
}

// IsProblemPage reports whether rawURL points at an individual problem on p
func IsProblemPage(p models.Platform, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, re := range problemPaths[p] {
		if re.MatchString(u.Path) {
			return true
		}
	}
	return false
}
