package rod

import (
	"context"
	"sync"

	"github.com/fwojciec/mcscrape"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// BrowserManager owns the Chrome process shared by all fetches. It bounds the
// number of open pages with a weighted semaphore and replaces the browser
// after maxPages pages, once no page is in flight, because Chrome's memory
// baseline keeps growing under load.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	sem       *semaphore.Weighted
	pageCount int64
	active    int
	closed    bool

	maxPages  int64
	slots     int64
	proxyHost string
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of pages served before the browser is recycled.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithSlots sets how many pages may be open at once.
// Defaults to mcscrape.DefaultConcurrency.
func WithSlots(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.slots = n
	}
}

// WithProxyHost routes all browser traffic through the given proxy
// (host:port). Credentials are answered per page by the Fetcher.
func WithProxyHost(host string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.proxyHost = host
	}
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		slots:    mcscrape.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bm)
	}
	if bm.slots < 1 {
		bm.slots = 1
	}
	bm.sem = semaphore.NewWeighted(bm.slots)

	if err := bm.launchBrowser(); err != nil {
		return nil, err
	}
	return bm, nil
}

// Acquire blocks until a page slot is free and returns the current browser.
// The returned release func must be called once the page is closed.
func (bm *BrowserManager) Acquire(ctx context.Context) (*rod.Browser, func(), error) {
	if err := bm.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, mcscrape.WrapError(mcscrape.ETIMEOUT, err, "waiting for browser slot: %v", err)
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		bm.sem.Release(1)
		return nil, nil, mcscrape.Errorf(mcscrape.EINVALID, "browser manager is closed")
	}
	if bm.pageCount >= bm.maxPages && bm.active == 0 {
		bm.recycleBrowser()
	}
	bm.active++
	bm.pageCount++

	var once sync.Once
	release := func() {
		once.Do(func() {
			bm.mu.Lock()
			bm.active--
			bm.mu.Unlock()
			bm.sem.Release(1)
		})
	}
	return bm.browser, release, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	return bm.closeBrowser()
}

// launchBrowser starts a new browser instance with stability flags.
func (bm *BrowserManager) launchBrowser() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)
	if bm.proxyHost != "" {
		l = l.Proxy(bm.proxyHost)
	}

	u, err := l.Launch()
	if err != nil {
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "connecting to browser: %v", err)
	}

	bm.browser = browser
	bm.launcher = l
	return nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (bm *BrowserManager) closeBrowser() error {
	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// recycleBrowser starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held and no page in flight.
func (bm *BrowserManager) recycleBrowser() {
	oldBrowser := bm.browser
	oldLauncher := bm.launcher
	bm.browser = nil
	bm.launcher = nil

	if err := bm.launchBrowser(); err != nil {
		bm.browser = oldBrowser
		bm.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	bm.pageCount = 0
}

// LauncherPID returns the process ID of the browser launcher.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}
