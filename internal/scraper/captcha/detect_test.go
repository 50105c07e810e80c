package captcha

import (
	"context"
	"testing"
	"time"

	"codementor/internal/logging"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Challenge
	}{
		{
			name: "plain problem page",
			html: `<html><body><div class="elfjS">Two Sum</div><footer>Protected by Cloudflare. Ray ID: 1</footer></body></html>`,
			want: Challenge{},
		},
		{
			name: "turnstile widget",
			html: `<div class="cf-turnstile" data-sitekey="0x4AAAAAAABkMYinukE8nzY"></div>`,
			want: Challenge{Kind: KindTurnstile, SiteKey: "0x4AAAAAAABkMYinukE8nzY"},
		},
		{
			name: "recaptcha widget",
			html: `<div class="g-recaptcha" data-sitekey="6LeIxAcTAAAAAJcZVRqyHh71"></div>`,
			want: Challenge{Kind: KindRecaptcha, SiteKey: "6LeIxAcTAAAAAJcZVRqyHh71"},
		},
		{
			name: "interstitial without key",
			html: `<title>Just a moment...</title><div id="cf-challenge-running"></div>`,
			want: Challenge{Kind: KindCloudflare},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.html)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind == KindNone, Resolved(tt.html))
		})
	}
}

func TestChallenge_Solvable(t *testing.T) {
	assert.True(t, Challenge{Kind: KindTurnstile, SiteKey: "0x4AAAAAAABkMYinukE8nzY"}.Solvable())
	assert.False(t, Challenge{Kind: KindCloudflare}.Solvable())
	assert.False(t, Challenge{}.Solvable())
}

func TestTwoCaptchaSolver_DisabledWithoutKey(t *testing.T) {
	s := NewTwoCaptchaSolver(SolverConfig{Timeout: time.Second, AutoSolve: true}, logging.Nop())
	assert.False(t, s.Enabled())

	_, err := s.SolveTurnstile(context.Background(), "0x4AAAAAAABkMYinukE8nzY", "https://leetcode.com/problems/two-sum/")
	assert.ErrorIs(t, err, ErrSolverDisabled)
}
