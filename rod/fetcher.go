// Package rod implements mcscrape.Fetcher with headless Chrome via go-rod.
package rod

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/mcscrape"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements mcscrape.Fetcher at compile time.
var _ mcscrape.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager    *BrowserManager
	owned      bool
	proxy      *mcscrape.ProxyConfig
	quiescence mcscrape.Quiescence
	slots      int64

	mu     sync.Mutex
	closed bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBrowserManager shares an existing BrowserManager. The Fetcher does not
// close a manager it did not create.
func WithBrowserManager(bm *BrowserManager) Option {
	return func(f *Fetcher) {
		f.manager = bm
	}
}

// WithProxy routes traffic through the proxy and answers its
// authentication challenges when credentials are set.
func WithProxy(p *mcscrape.ProxyConfig) Option {
	return func(f *Fetcher) {
		f.proxy = p
	}
}

// WithQuiescence sets the network idle window and the ceiling on how long
// to wait for it after the load event.
func WithQuiescence(q mcscrape.Quiescence) Option {
	return func(f *Fetcher) {
		f.quiescence = q
	}
}

// WithConcurrency sets how many pages may be open at once.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		f.slots = int64(n)
	}
}

// NewFetcher creates a new Fetcher. Unless a BrowserManager is supplied it
// launches its own headless Chrome. Close must be called when the Fetcher is
// no longer needed.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		quiescence: mcscrape.Quiescence{
			IdleWindow: mcscrape.DefaultIdleWindow,
			MaxWait:    mcscrape.DefaultMaxWait,
		},
		slots: mcscrape.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.manager == nil {
		mopts := []ManagerOption{WithSlots(f.slots)}
		if f.proxy != nil {
			mopts = append(mopts, WithProxyHost(f.proxy.Host))
		}
		bm, err := NewBrowserManager(mopts...)
		if err != nil {
			return nil, err
		}
		f.manager = bm
		f.owned = true
	}
	return f, nil
}

// Fetch navigates to the URL, waits for the load event and then for network
// quiescence, and returns the rendered DOM. Reaching the quiescence ceiling
// is not an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*mcscrape.PageSnapshot, error) {
	if f.isClosed() {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "fetcher is closed")
	}
	if _, err := mcscrape.ValidatePageURL(url); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fetchError(ctx, url, err)
	}

	browser, release, err := f.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "opening page: %v", err)
	}
	defer page.Close()

	page, cancel := page.Context(ctx).WithCancel()
	defer cancel()

	if f.proxy.HasCredentials() {
		f.handleProxyAuth(page)
	}

	responses := watchDocuments(page)

	if err := page.Navigate(url); err != nil {
		return nil, fetchError(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fetchError(ctx, url, err)
	}
	f.waitQuiescent(page)

	html, err := page.HTML()
	if err != nil {
		return nil, fetchError(ctx, url, err)
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	status := responses.status(finalURL)
	if err := mcscrape.CheckResponse(url, status, html); err != nil {
		return nil, err
	}

	return &mcscrape.PageSnapshot{
		URL:        url,
		FinalURL:   finalURL,
		StatusCode: status,
		RawHTML:    html,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// waitQuiescent blocks until no request has been in flight for the idle
// window, or until MaxWait elapses.
func (f *Fetcher) waitQuiescent(page *rod.Page) {
	if f.quiescence.IdleWindow <= 0 {
		return
	}
	bounded := page
	if f.quiescence.MaxWait > 0 {
		bounded = page.Timeout(f.quiescence.MaxWait)
		defer bounded.CancelTimeout()
	}
	bounded.WaitRequestIdle(f.quiescence.IdleWindow, nil, nil, nil)()
}

// handleProxyAuth answers proxy authentication challenges for every request
// the page makes.
func (f *Fetcher) handleProxyAuth(page *rod.Page) {
	_ = page.EnableDomain(&proto.FetchEnable{HandleAuthRequests: true})

	go page.EachEvent(
		func(e *proto.FetchRequestPaused) {
			_ = proto.FetchContinueRequest{RequestID: e.RequestID}.Call(page)
		},
		func(e *proto.FetchAuthRequired) {
			_ = proto.FetchContinueWithAuth{
				RequestID: e.RequestID,
				AuthChallengeResponse: &proto.FetchAuthChallengeResponse{
					Response: proto.FetchAuthChallengeResponseResponseProvideCredentials,
					Username: f.proxy.Username,
					Password: f.proxy.Password,
				},
			}.Call(page)
		},
	)()
}

// documentResponses records the status of every document response the page
// receives, so the main document's status can be looked up by final URL.
type documentResponses struct {
	mu    sync.Mutex
	first int
	byURL map[string]int
}

func watchDocuments(page *rod.Page) *documentResponses {
	r := &documentResponses{byURL: make(map[string]int)}
	go page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.first == 0 {
			r.first = e.Response.Status
		}
		r.byURL[e.Response.URL] = e.Response.Status
	})()
	return r
}

func (r *documentResponses) status(finalURL string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byURL[finalURL]; ok {
		return s
	}
	return r.first
}

// fetchError maps browser failures onto the fetch error taxonomy.
func fetchError(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, ctxErr, "fetching %s: %v", url, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "fetching %s: %v", url, err)
	}
	var navErr *rod.NavigationError
	if errors.As(err, &navErr) || strings.Contains(err.Error(), "net::ERR_") {
		return mcscrape.WrapError(mcscrape.ENETWORK, err, "navigating to %s: %v", url, err)
	}
	return mcscrape.WrapError(mcscrape.ENETWORK, err, "fetching %s: %v", url, err)
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.owned {
		return f.manager.Close()
	}
	return nil
}

func (f *Fetcher) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
