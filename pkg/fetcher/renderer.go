package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const DefaultRenderTimeout = 60 * time.Second

// Renderer loads pages in headless Chrome and returns the DOM after scripts
// ran. One browser is started lazily and shared by every call; each page
// gets its own tab.
type Renderer struct {
	timeout time.Duration
	waitFor string

	once        sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	startErr    error
}

// NewRenderer returns a Renderer that waits for waitFor (a CSS selector,
// "body" when empty) to be visible before reading the page.
func NewRenderer(waitFor string, timeout time.Duration) *Renderer {
	if waitFor == "" {
		waitFor = "body"
	}
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &Renderer{timeout: timeout, waitFor: waitFor}
}

func (r *Renderer) start() error {
	r.once.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("mute-audio", true),
			chromedp.UserAgent(DefaultUserAgent),
		)
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		r.browserCtx, r.cancel = chromedp.NewContext(r.allocCtx)

		// The first Run launches the browser process.
		if err := chromedp.Run(r.browserCtx); err != nil {
			r.startErr = fmt.Errorf("failed to start browser: %w", err)
		}
	})
	return r.startErr
}

// Fetch navigates to url, waits for the network to settle and the wait
// selector to appear, then returns the document's outer HTML.
func (r *Renderer) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := r.start(); err != nil {
		return nil, &FetchError{Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	// Propagate the caller's cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(r.waitFor, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("failed to render %s: %w", url, err)}
	}
	return []byte(html), nil
}

// Close shuts the browser down. It is safe to call on an unused Renderer.
func (r *Renderer) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
}
