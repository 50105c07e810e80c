package fetch

import (
	"context"
	"fmt"
	"os"
	"sync"

	"codementor/internal/config"
	"codementor/internal/logging/types"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserOptions configures the shared Chromium instance
type BrowserOptions struct {
	Headless  bool
	Stealth   bool
	UserAgent string
	Bin       string
}

// BrowserOptionsFromConfig maps scraper config onto BrowserOptions
func BrowserOptionsFromConfig(cfg *config.Config) BrowserOptions {
	return BrowserOptions{
		Headless:  cfg.Scraper.HeadlessMode,
		Stealth:   cfg.Scraper.StealthMode,
		UserAgent: cfg.Scraper.UserAgent,
	}
}

// BrowserManager lazily launches one Chromium and hands out pages from it
type BrowserManager struct {
	opts     BrowserOptions
	launcher *launcher.Launcher
	browser  *rod.Browser
	mu       sync.Mutex
	logger   types.Logger
}

// NewBrowserManager creates a new browser manager. Nothing is launched until
// the first page is requested.
func NewBrowserManager(opts BrowserOptions, logger types.Logger) *BrowserManager {
	return &BrowserManager{opts: opts, logger: logger.WithField("component", "browser")}
}

// Browser returns the connected browser, launching it on first use
func (bm *BrowserManager) Browser() (*rod.Browser, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.browser != nil {
		if _, err := bm.browser.Pages(); err == nil {
			return bm.browser, nil
		}
		bm.logger.Warn("Browser connection lost, relaunching")
		bm.shutdownLocked()
	}

	l := launcher.New().
		Headless(bm.opts.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	bin := bm.opts.Bin
	if bin == "" {
		bin = systemChromePath()
	}
	if bin != "" {
		l = l.Bin(bin)
		bm.logger.Info("Using system Chrome browser", map[string]interface{}{"chrome_path": bin})
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	bm.launcher = l
	bm.browser = browser
	bm.logger.Info("Browser launched", map[string]interface{}{"headless": bm.opts.Headless})
	return browser, nil
}

// NewPage opens a page bound to ctx, with stealth patches when enabled
func (bm *BrowserManager) NewPage(ctx context.Context) (*rod.Page, error) {
	browser, err := bm.Browser()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if bm.opts.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1440,
		Height:            900,
		DeviceScaleFactor: 1,
	}); err != nil {
		bm.logger.Debug("Failed to set viewport", map[string]interface{}{"error": err.Error()})
	}

	if bm.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      bm.opts.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		}); err != nil {
			bm.logger.Debug("Failed to set user agent", map[string]interface{}{"error": err.Error()})
		}
	}

	return page.Context(ctx), nil
}

// Close shuts the browser down
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.shutdownLocked()
	return nil
}

func (bm *BrowserManager) shutdownLocked() {
	if bm.browser != nil {
		_ = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Cleanup()
		bm.launcher = nil
	}
}

// systemChromePath finds an installed Chrome/Chromium so rod does not download one
func systemChromePath() string {
	for _, env := range []string{"CHROME_BIN", "CHROME_PATH"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	for _, p := range []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if p, found := launcher.LookPath(); found {
		return p
	}
	return ""
}
