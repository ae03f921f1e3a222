package sites

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/consultape/registro-scraper/internal/browser"
	"github.com/consultape/registro-scraper/internal/config"
	"github.com/consultape/registro-scraper/internal/scraper"
)

// Redjum looks up judicial-debtor records by DNI. The portal renders nothing
// useful into the DOM; after submission the page issues a background
// deudoresPorDocumento fetch, and the payload only exists in that response.
// Submission is gated by a CAPTCHA that an operator has to solve.
type Redjum struct {
	browser   *browser.Browser
	capture   *scraper.NetworkCapture
	responder scraper.ChallengeResponder
	cfg       config.ScraperConfig
	logger    *logrus.Entry
}

// NewRedjum creates the REDJUM lookup strategy.
func NewRedjum(b *browser.Browser, capture *scraper.NetworkCapture, responder scraper.ChallengeResponder, cfg config.ScraperConfig, logger *logrus.Logger) *Redjum {
	return &Redjum{
		browser:   b,
		capture:   capture,
		responder: responder,
		cfg:       cfg,
		logger:    logger.WithField("site", config.SiteRedjum),
	}
}

// Name returns the site name.
func (r *Redjum) Name() string { return config.SiteRedjum }

// Navigate resets the browser, walks to the DNI search form, obtains the
// challenge solution and submits. Interception is armed right before the
// submit click so the background fetch cannot be missed.
func (r *Redjum) Navigate(ctx context.Context, key string) error {
	// A previous attempt that died between arm and extract must not leave
	// its interception running into this one.
	r.capture.Disarm()

	if err := r.browser.Reset(); err != nil {
		return navErr(config.SiteRedjum, "cleanup", err)
	}
	if err := r.browser.Navigate(r.cfg.RedjumURL); err != nil {
		return navErr(config.SiteRedjum, "load", err)
	}
	// The Angular shell needs a moment after load before the menu reacts.
	if err := r.browser.Settle(time.Second); err != nil {
		return err
	}

	if err := r.browser.WaitVisible("a.nav-link"); err != nil {
		return navErr(config.SiteRedjum, "menu", err)
	}
	if err := r.clickDocumentSection(); err != nil {
		return navErr(config.SiteRedjum, "menu", err)
	}
	r.logger.Info("Successfully navigated to DNI section")
	if err := r.browser.Settle(time.Second); err != nil {
		return err
	}

	if err := r.browser.SelectByText("select.form-control", "DNI"); err != nil {
		return navErr(config.SiteRedjum, "doctype", err)
	}
	if err := r.browser.ClearAndType("#numerodocumento", key); err != nil {
		return navErr(config.SiteRedjum, "fill", err)
	}
	r.logger.WithField("key", key).Info("Inserting DNI")

	solution, err := r.responder.Solve(ctx, key)
	if err != nil {
		return err
	}
	if err := r.browser.ClearAndType("#captcha", solution); err != nil {
		return navErr(config.SiteRedjum, "challenge", err)
	}

	if err := r.capture.Arm(r.cfg.RedjumURLFilter); err != nil {
		return navErr(config.SiteRedjum, "intercept", err)
	}

	r.logger.Info("Submitting search with challenge solution")
	if err := r.browser.Click("button.btn.btn-red"); err != nil {
		r.capture.Disarm()
		return navErr(config.SiteRedjum, "submit", err)
	}

	return nil
}

// Extract waits for the correlated background response and returns its
// parsed body. Interception is disarmed on every path out.
func (r *Redjum) Extract(ctx context.Context, key string) (interface{}, error) {
	defer r.capture.Disarm()

	if err := r.browser.Settle(r.cfg.SubmitSettle); err != nil {
		return nil, err
	}

	payload, err := r.capture.Collect(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.WithField("key", key).Info("Data successfully extracted from network exchange")
	return payload, nil
}

// clickDocumentSection clicks the third navigation entry, which holds the
// by-document search. The entries carry no stable ids.
func (r *Redjum) clickDocumentSection() error {
	var clicked bool
	err := r.browser.Evaluate(`(() => {
		const links = document.querySelectorAll('a.nav-link');
		if (links.length < 3) return false;
		links[2].click();
		return true;
	})()`, &clicked)
	if err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("document section link not found")
	}
	return nil
}
