// Package browser wraps chromedp with a per-attempt session arena: one
// headless browser context acquired at attempt start and released on every
// exit path. Element references never outlive one rendered step.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// userAgent masks the headless fingerprint; several ATS vendors serve a
// degraded form to the default HeadlessChrome UA.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Options configures a browser session.
type Options struct {
	Headless bool
	Timeout  time.Duration // wall clock for the whole attempt
	Verbose  bool
}

// Session owns one exclusive browser context for the duration of one
// attempt. It is not safe for concurrent use; each worker attempt gets its
// own Session.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	verbose bool
}

// NewSession starts a headless browser context bound to the parent context
// and the attempt timeout. Callers must defer Close.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	timeoutCtx, timeoutCancel := context.WithTimeout(browserCtx, opts.Timeout)

	s := &Session{
		ctx: timeoutCtx,
		// Cancel in reverse acquisition order on Close.
		cancels: []context.CancelFunc{timeoutCancel, browserCancel, allocCancel},
		verbose: opts.Verbose,
	}

	// Force allocation now so a missing Chrome binary fails fast instead of
	// on the first navigation, and mask the headless user agent.
	err := chromedp.Run(timeoutCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(userAgent).Do(ctx)
		}),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return s, nil
}

// Close releases the browser and all derived contexts. Safe to call on a
// partially constructed session and more than once.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// Context exposes the session context for timeout checks.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Navigate loads the target URL and waits for the document body.
func (s *Session) Navigate(url string) error {
	if s.verbose {
		fmt.Printf("[BROWSER] Navigating to: %s\n", url)
	}
	err := chromedp.Run(s.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WaitSettle gives client-side rendering a moment to finish. Employer sites
// routinely inject fields after load, so each step re-derives the page only
// after this settle window.
func (s *Session) WaitSettle(d time.Duration) error {
	if d <= 0 {
		d = 2 * time.Second
	}
	return chromedp.Run(s.ctx, chromedp.Sleep(d))
}

// OuterHTML returns the full rendered document markup.
func (s *Session) OuterHTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to capture page HTML: %w", err)
	}
	return html, nil
}

// VisibleText returns the page's rendered text content.
func (s *Session) VisibleText() (string, error) {
	var text string
	if err := chromedp.Run(s.ctx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page text: %w", err)
	}
	return text, nil
}

// Screenshot captures the current viewport as PNG bytes.
func (s *Session) Screenshot() ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(s.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// CurrentURL returns the browser's current location.
func (s *Session) CurrentURL() (string, error) {
	var url string
	if err := chromedp.Run(s.ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Evaluate runs a JavaScript expression and unmarshals its result into out.
func (s *Session) Evaluate(expr string, out any) error {
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}
