// Package http provides an HTTP-based implementation of mcscrape.Fetcher
// for static pages that don't require JavaScript rendering.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/mcscrape"
)

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (compatible; mcscrape/1.0)"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

// Ensure Fetcher implements mcscrape.Fetcher at compile time.
var _ mcscrape.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	proxy     *mcscrape.ProxyConfig
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets a client-side timeout for each request, in addition to
// the deadline carried by the context. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithProxy routes requests through an HTTP proxy.
func WithProxy(p *mcscrape.ProxyConfig) Option {
	return func(f *Fetcher) {
		f.proxy = p
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(f)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if f.proxy != nil && f.proxy.Host != "" {
		proxyURL := &url.URL{Scheme: "http", Host: f.proxy.Host}
		if f.proxy.HasCredentials() {
			proxyURL.User = url.UserPassword(f.proxy.Username, f.proxy.Password)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
	}
	return f
}

// Fetch retrieves the HTML served at url. Redirects are followed and the
// last URL is reported as FinalURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*mcscrape.PageSnapshot, error) {
	if _, err := mcscrape.ValidatePageURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINVALIDURL, err, "invalid url %q: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fetchError(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fetchError(ctx, rawURL, err)
	}

	html := string(body)
	if err := mcscrape.CheckResponse(rawURL, resp.StatusCode, html); err != nil {
		return nil, err
	}

	return &mcscrape.PageSnapshot{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		RawHTML:    html,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// fetchError maps transport failures onto the fetch error taxonomy.
func fetchError(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, ctxErr, "fetching %s: %v", url, ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "fetching %s: %v", url, err)
	}
	return mcscrape.WrapError(mcscrape.ENETWORK, err, "fetching %s: %v", url, err)
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
