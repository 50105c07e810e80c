package fetch

import (
	"context"
	"fmt"
	"time"

	"codementor/internal/logging/types"
	"codementor/internal/scraper/captcha"
	"codementor/pkg/utils"

	"github.com/go-rod/rod"
)

// injectTokenJS fills the response field of a solved widget and submits its form
const injectTokenJS = `(kind, token) => {
	const field = kind === 'turnstile' ? 'cf-turnstile-response' : 'g-recaptcha-response';
	let inputs = document.querySelectorAll('[name="' + field + '"]');
	if (inputs.length === 0) {
		const holder = document.querySelector(kind === 'turnstile' ? '.cf-turnstile' : '.g-recaptcha') || document.body;
		const input = document.createElement('input');
		input.type = 'hidden';
		input.name = field;
		holder.appendChild(input);
		inputs = [input];
	}
	for (const input of inputs) {
		input.value = token;
	}
	const widget = document.querySelector('[data-sitekey]');
	const callback = widget && widget.getAttribute('data-callback');
	if (callback && typeof window[callback] === 'function') {
		window[callback](token);
		return;
	}
	const form = inputs[0].closest('form');
	if (form) form.submit();
}`

// HeadedFetcher renders pages in Chromium so SPA platforms hydrate before the
// DOM is captured
type HeadedFetcher struct {
	browsers *BrowserManager
	solver   captcha.Solver
	timeout  time.Duration
	logger   types.Logger
}

// NewHeadedFetcher creates a headed fetcher. solver may be nil.
func NewHeadedFetcher(browsers *BrowserManager, solver captcha.Solver, timeout time.Duration, logger types.Logger) *HeadedFetcher {
	return &HeadedFetcher{
		browsers: browsers,
		solver:   solver,
		timeout:  timeout,
		logger:   logger.WithField("engine", EngineHeaded),
	}
}

func (f *HeadedFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	timeout := f.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := f.browsers.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", req.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed waiting for load of %s: %w", req.URL, err)
	}
	if err := sleepCtx(ctx, req.Settle); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get page HTML: %w", err)
	}

	if challenge := captcha.Detect(html); challenge.Kind != captcha.KindNone {
		html, err = f.solveChallenge(ctx, page, req, challenge)
		if err != nil {
			return nil, err
		}
	}

	return &Page{URL: req.URL, HTML: html, Engine: EngineHeaded, FetchedAt: time.Now()}, nil
}

// solveChallenge tries once to clear a challenge and returns the page HTML
// afterwards. Unsolvable or persisting challenges yield a captcha error.
func (f *HeadedFetcher) solveChallenge(ctx context.Context, page *rod.Page, req Request, challenge captcha.Challenge) (string, error) {
	fields := map[string]interface{}{"url": req.URL, "kind": string(challenge.Kind)}

	if !challenge.Solvable() || f.solver == nil || !f.solver.Enabled() {
		f.logger.Warn("Challenge detected, not solvable here", fields)
		return "", utils.NewCaptchaError(string(challenge.Kind))
	}

	f.logger.Info("Challenge detected, solving", fields)

	var (
		token string
		err   error
	)
	switch challenge.Kind {
	case captcha.KindTurnstile:
		token, err = f.solver.SolveTurnstile(ctx, challenge.SiteKey, req.URL)
	default:
		token, err = f.solver.SolveRecaptcha(ctx, challenge.SiteKey, req.URL)
	}
	if err != nil {
		return "", utils.NewCaptchaError(err.Error())
	}

	if _, err := page.Eval(injectTokenJS, string(challenge.Kind), token); err != nil {
		return "", utils.NewCaptchaError("failed to inject token: " + err.Error())
	}
	_ = page.WaitLoad()
	if err := sleepCtx(ctx, req.Settle+2*time.Second); err != nil {
		return "", err
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	if !captcha.Resolved(html) {
		return "", utils.NewCaptchaError("challenge persisted after solving")
	}

	f.logger.Info("Challenge cleared", fields)
	return html, nil
}

func (f *HeadedFetcher) Name() string {
	return EngineHeaded
}

func (f *HeadedFetcher) Close() error {
	return f.browsers.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
