package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/serviceworker"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/consultape/registro-scraper/internal/config"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"

// Browser owns the single Chrome instance used by a scraping session. It is
// never shared between concurrent flows; the session holds it exclusively
// from Start to Stop.
type Browser struct {
	cfg     config.BrowserConfig
	headers map[string]string
	logger  *logrus.Entry

	ctx         context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
	started     bool
}

// New creates a browser wrapper. headers is the randomized header set fetched
// at session setup; a nil map falls back to the configured user agent.
func New(cfg config.BrowserConfig, headers map[string]string, logger *logrus.Logger) *Browser {
	return &Browser{
		cfg:     cfg,
		headers: headers,
		logger:  logger.WithField("component", "browser"),
	}
}

// Start launches Chrome and verifies it responds. The parent context
// controls the whole browser lifetime, cancelling it (operator interrupt)
// aborts any in-flight driver call.
func (b *Browser) Start(parent context.Context) error {
	opts := append([]chromedp.ExecAllocatorOption{},
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.WindowSize(b.cfg.WindowWidth, b.cfg.WindowHeight),
		chromedp.UserAgent(b.userAgent()),
	)

	if lang, ok := b.headers["accept-language"]; ok && lang != "" {
		opts = append(opts, chromedp.Flag("accept-lang", lang))
	}
	if b.cfg.Headless {
		opts = append(opts, chromedp.Headless, chromedp.DisableGPU)
	} else {
		opts = append(opts, chromedp.Flag("start-maximized", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	b.ctx = ctx
	b.allocCancel = allocCancel
	b.ctxCancel = ctxCancel

	// Health check: make sure Chrome actually came up.
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(checkCtx, chromedp.Navigate("about:blank")); err != nil {
		b.Stop()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	b.started = true
	b.logger.Info("Browser started")
	return nil
}

// Stop shuts the browser down. Safe to call on every exit path, including
// after a failed Start.
func (b *Browser) Stop() {
	if b.ctxCancel != nil {
		b.ctxCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	if b.started {
		b.logger.Info("Browser stopped")
		b.started = false
	}
}

// Ctx returns the chromedp context. Network event listeners attach here.
func (b *Browser) Ctx() context.Context {
	return b.ctx
}

func (b *Browser) userAgent() string {
	if ua, ok := b.headers["user-agent"]; ok && ua != "" {
		return ua
	}
	if b.cfg.UserAgent != "" {
		return b.cfg.UserAgent
	}
	return defaultUserAgent
}

// Reset wipes cookies, caches, storage and service workers, then parks the
// page on about:blank. Run before every key so attempts sharing this browser
// cannot contaminate each other. Individual wipe failures are logged and
// tolerated, matching the target sites' flaky storage APIs.
func (b *Browser) Reset() error {
	if err := b.run(b.cfg.PageTimeout,
		network.ClearBrowserCache(),
		network.ClearBrowserCookies(),
	); err != nil {
		return fmt.Errorf("failed to clear browser data: %w", err)
	}

	if err := b.run(b.cfg.ElementTimeout, storage.ClearDataForOrigin("*", "all")); err != nil {
		b.logger.WithError(err).Debug("Origin storage clearing skipped")
	}
	if err := b.run(b.cfg.ElementTimeout, serviceworker.Disable()); err != nil {
		b.logger.WithError(err).Debug("Service worker cleanup skipped")
	}
	if err := b.Evaluate(`(() => { try { localStorage.clear(); sessionStorage.clear(); } catch (e) {} })()`, nil); err != nil {
		b.logger.WithError(err).Debug("Page storage clearing skipped")
	}

	// Parking on a blank page forces pending page state to drop before the
	// next navigation.
	if err := b.run(b.cfg.PageTimeout, chromedp.Navigate("about:blank")); err != nil {
		return fmt.Errorf("failed to reset page: %w", err)
	}

	b.logger.Debug("Completed full browser data cleanup")
	return nil
}

// Navigate loads a URL and waits for the document to settle. A page that
// never reaches readyState complete is logged and tolerated, some of the
// target sites keep long-polling requests open forever.
func (b *Browser) Navigate(url string) error {
	if err := b.run(b.cfg.PageTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	err := b.run(b.cfg.ElementTimeout,
		chromedp.Poll("document.readyState === 'complete'", nil),
	)
	if err != nil {
		b.logger.Warn("Page might not be fully loaded, attempting to proceed anyway")
	}
	return nil
}

// WaitVisible waits for an element within the configured element timeout.
func (b *Browser) WaitVisible(sel string) error {
	return b.run(b.cfg.ElementTimeout, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// Click clicks the first element matching sel.
func (b *Browser) Click(sel string) error {
	return b.run(b.cfg.ElementTimeout, chromedp.Click(sel, chromedp.ByQuery))
}

// ClearAndType clears an input and types a value into it.
func (b *Browser) ClearAndType(sel, value string) error {
	return b.run(b.cfg.ElementTimeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	)
}

// Text returns the text content of the first element matching sel.
func (b *Browser) Text(sel string) (string, error) {
	var text string
	if err := b.run(b.cfg.ElementTimeout, chromedp.Text(sel, &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// FieldText reads one field's text, tolerating absence: a missing element
// reports ok=false instead of an error so callers can walk fallback selector
// chains.
func (b *Browser) FieldText(sel string) (string, bool) {
	ctx, cancel := context.WithTimeout(b.ctx, b.cfg.FieldProbeTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(ctx, chromedp.Text(sel, &text, chromedp.ByQuery)); err != nil {
		return "", false
	}
	return strings.TrimSpace(text), true
}

// Attribute reads an attribute of the first element matching sel. ok=false
// means the attribute is absent; a missing element is an error.
func (b *Browser) Attribute(sel, name string) (string, bool, error) {
	var value string
	var ok bool
	err := b.run(b.cfg.ElementTimeout, chromedp.AttributeValue(sel, name, &value, &ok, chromedp.ByQuery))
	if err != nil {
		return "", false, err
	}
	return value, ok, nil
}

// OuterHTML returns the serialized HTML of the first element matching sel.
func (b *Browser) OuterHTML(sel string) (string, error) {
	var html string
	if err := b.run(b.cfg.ElementTimeout, chromedp.OuterHTML(sel, &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Evaluate runs a JavaScript expression in the page. res may be nil.
func (b *Browser) Evaluate(expr string, res interface{}) error {
	return b.run(b.cfg.ElementTimeout, chromedp.Evaluate(expr, res))
}

// SelectByText picks a <select> option by its visible label and fires the
// change event, the Angular/ASP.NET pages only react to the event.
func (b *Browser) SelectByText(sel, label string) error {
	expr := fmt.Sprintf(`(() => {
		const select = document.querySelector(%q);
		if (!select) return false;
		for (const option of select.options) {
			if (option.text.trim() === %q) {
				select.value = option.value;
				select.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			}
		}
		return false;
	})()`, sel, label)

	var picked bool
	if err := b.Evaluate(expr, &picked); err != nil {
		return err
	}
	if !picked {
		return fmt.Errorf("option %q not found in %s", label, sel)
	}
	return nil
}

// Settle waits a fixed interval, aborting early if the browser context is
// cancelled.
func (b *Browser) Settle(d time.Duration) error {
	select {
	case <-b.ctx.Done():
		return b.ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// run executes chromedp actions against the browser context with a bounded
// deadline.
func (b *Browser) run(timeout time.Duration, actions ...chromedp.Action) error {
	if b.ctx == nil {
		return fmt.Errorf("browser not started")
	}
	ctx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}
