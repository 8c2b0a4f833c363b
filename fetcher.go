package mcscrape

import (
	"context"
	"strings"
	"time"
)

// PageSnapshot is the rendered state of a page at the moment it was captured.
// It is produced once per fetch and never mutated afterwards.
type PageSnapshot struct {
	URL        string    `json:"url"`
	FinalURL   string    `json:"finalUrl"`
	StatusCode int       `json:"statusCode"`
	RawHTML    string    `json:"-"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// Fetcher retrieves rendered HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch navigates to the URL, waits for rendering to settle,
	// and returns a snapshot of the resulting DOM.
	// The context controls timeout and cancellation.
	//
	// Errors carry one of ETIMEOUT, ENETWORK, EBLOCKED or EINVALIDURL.
	// Implementations never retry.
	Fetch(ctx context.Context, url string) (*PageSnapshot, error)

	// Close releases browser resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// challengeMarkers appear in interstitial pages served by bot-detection
// services. They only count when the status code is one such services use.
var challengeMarkers = []string{
	"cf-challenge",
	"cf-browser-verification",
	"challenge-platform",
	"captcha",
	"just a moment...",
	"attention required!",
	"_incapsula_resource",
	"ddos protection",
}

// challengePages are markers specific enough to identify a challenge page
// regardless of status code.
var challengePages = []string{
	`id="challenge-form"`,
	`id="cf-browser-verification"`,
	`id="px-captcha"`,
}

// CheckResponse classifies the main-document response of a fetch.
// Challenge pages return EBLOCKED; other statuses of 400 and above return
// ENETWORK wrapping an *HTTPStatusError. A zero status is not checked.
func CheckResponse(url string, status int, html string) error {
	lower := strings.ToLower(html)
	for _, m := range challengePages {
		if strings.Contains(lower, m) {
			return Errorf(EBLOCKED, "challenge page served for %s", url)
		}
	}
	if status < 400 {
		return nil
	}
	if status == 403 || status == 429 || status == 503 {
		for _, m := range challengeMarkers {
			if strings.Contains(lower, m) {
				return WrapError(EBLOCKED, &HTTPStatusError{StatusCode: status}, "blocked by bot detection (HTTP %d) for %s", status, url)
			}
		}
	}
	return WrapError(ENETWORK, &HTTPStatusError{StatusCode: status}, "HTTP %d for %s", status, url)
}
