// Package browser drives a rendered page: navigation, script
// evaluation, and the incremental reveal loop that coaxes a dynamically
// loaded catalog into showing everything it has.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"gamepass-catalog/config"
)

// Page is the rendering capability the loader and orchestrator depend
// on. Implementations own a live browser tab (or a fake in tests).
type Page interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Eval(ctx context.Context, script string, out any) error
	Close() error
}

// ChromePage drives a headless (or headed) Chrome tab via chromedp.
type ChromePage struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewChromePage launches a browser. Failure here is the one fatal error
// of the whole pipeline: without a rendering capability nothing works.
func NewChromePage(ctx context.Context, cfg *config.Config) (*ChromePage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// chromedp starts the browser lazily; force it now so acquisition
	// failure surfaces before the pipeline begins.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &ChromePage{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// Navigate loads url in the tab.
func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := mergeContext(p.browserCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// HTML snapshots the current document markup.
func (p *ChromePage) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := mergeContext(p.browserCtx, ctx)
	defer cancel()
	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("snapshot html: %w", err)
	}
	return html, nil
}

// Eval runs script in the page and unmarshals its value into out.
func (p *ChromePage) Eval(ctx context.Context, script string, out any) error {
	runCtx, cancel := mergeContext(p.browserCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

// Close shuts the tab and the browser process down.
func (p *ChromePage) Close() error {
	p.cancelBrowser()
	p.cancelAlloc()
	return nil
}

// mergeContext bounds the browser context by the caller's deadline and
// cancellation without detaching from the chromedp target hierarchy.
func mergeContext(browserCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(browserCtx)
	stop := context.AfterFunc(callerCtx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
