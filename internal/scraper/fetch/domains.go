package fetch

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"codementor/internal/logging/types"
	"codementor/pkg/utils"
)

// CaptchaDomains remembers hosts that served a challenge to the headed
// engine. It is persisted to a tab-separated file when a path is given.
type CaptchaDomains struct {
	path    string
	domains map[string]time.Time
	mu      sync.RWMutex
	logger  types.Logger
}

// NewCaptchaDomains loads the known list from path, if any
func NewCaptchaDomains(path string, logger types.Logger) *CaptchaDomains {
	cd := &CaptchaDomains{
		path:    path,
		domains: make(map[string]time.Time),
		logger:  logger.WithField("component", "captcha_domains"),
	}
	if err := cd.load(); err != nil {
		cd.logger.Error("Failed to load captcha domains", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
	}
	return cd
}

// Known reports whether rawURL's host has served a challenge before
func (cd *CaptchaDomains) Known(rawURL string) bool {
	domain := utils.ExtractDomain(rawURL)
	if domain == "" {
		return false
	}

	cd.mu.RLock()
	defer cd.mu.RUnlock()
	_, ok := cd.domains[domain]
	return ok
}

// Add records rawURL's host
func (cd *CaptchaDomains) Add(rawURL string) {
	domain := utils.ExtractDomain(rawURL)
	if domain == "" {
		return
	}

	cd.mu.Lock()
	defer cd.mu.Unlock()

	if _, ok := cd.domains[domain]; ok {
		return
	}
	cd.domains[domain] = time.Now()
	cd.logger.Info("Added captcha domain", map[string]interface{}{
		"domain":      domain,
		"total_count": len(cd.domains),
	})

	if err := cd.saveLocked(); err != nil {
		cd.logger.Error("Failed to save captcha domains", map[string]interface{}{
			"file":  cd.path,
			"error": err.Error(),
		})
	}
}

// Count returns the number of known domains
func (cd *CaptchaDomains) Count() int {
	cd.mu.RLock()
	defer cd.mu.RUnlock()
	return len(cd.domains)
}

func (cd *CaptchaDomains) load() error {
	if cd.path == "" {
		return nil
	}

	file, err := os.Open(cd.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		domain, seen, _ := strings.Cut(line, "\t")
		firstSeen, err := time.Parse(time.RFC3339, seen)
		if err != nil {
			firstSeen = time.Now()
		}
		cd.domains[strings.ToLower(domain)] = firstSeen
	}
	return scanner.Err()
}

func (cd *CaptchaDomains) saveLocked() error {
	if cd.path == "" {
		return nil
	}

	domains := make([]string, 0, len(cd.domains))
	for d := range cd.domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	var b strings.Builder
	b.WriteString("# Captcha-protected domains (automatically managed)\n")
	b.WriteString("# Format: domain\\tfirst_seen_timestamp\n\n")
	for _, d := range domains {
		fmt.Fprintf(&b, "%s\t%s\n", d, cd.domains[d].Format(time.RFC3339))
	}

	return os.WriteFile(cd.path, []byte(b.String()), 0644)
}
