package models

import "time"

// ScrapeRequest represents the request payload for scraping a problem page.
// When HTML is set the page is not fetched; the snapshot is parsed as-is.
type ScrapeRequest struct {
	URL     string         `json:"url" validate:"required,url"`
	HTML    string         `json:"html,omitempty"`
	Options *ScrapeOptions `json:"options,omitempty"`
}

// ScrapeOptions provides additional configuration for scraping requests
type ScrapeOptions struct {
	Engine    string        `json:"engine,omitempty"`  // "static", "headed", "firecrawl", "hybrid"
	Timeout   time.Duration `json:"timeout,omitempty"` // Request timeout
	UserAgent string        `json:"user_agent,omitempty"`
}
