package sites

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/consultape/registro-scraper/internal/browser"
	"github.com/consultape/registro-scraper/internal/config"
)

// headerRowOffset is the number of decoration rows preceding data rows in
// the REINFO results grid.
const headerRowOffset = 3

// ReinfoColumns are the grid's data columns, in cell order.
var ReinfoColumns = []string{
	"id",
	"ruc",
	"nombre",
	"nombre_derecho_minero",
	"codigo_unico",
	"departamento",
	"provincia",
	"distrito",
	"estado",
}

// reinfoFilters is the search filter setup applied before the grid appears:
// dump everything, ordered by RUC ascending.
var reinfoFilters = []struct {
	selector string
	label    string
}{
	{"#ddllistado", "TODOS"},
	{"#ddltipopersona", "TODOS"},
	{"#ddlordenado", "RUC"},
	{"#ddlforma", "ASC"},
}

// Reinfo dumps the whole informal-mining registry by paging through its
// results grid. There are no lookup keys, the grid is the single unit of
// work.
type Reinfo struct {
	browser *browser.Browser
	cfg     config.ScraperConfig
	logger  *logrus.Entry
}

// NewReinfo creates the REINFO registry-dump pager.
func NewReinfo(b *browser.Browser, cfg config.ScraperConfig, logger *logrus.Logger) *Reinfo {
	return &Reinfo{
		browser: b,
		cfg:     cfg,
		logger:  logger.WithField("site", config.SiteReinfo),
	}
}

// Name returns the site name.
func (r *Reinfo) Name() string { return config.SiteReinfo }

// Open loads the registry page, applies the search filters and lands on the
// first results page.
func (r *Reinfo) Open(ctx context.Context) error {
	if err := r.browser.Navigate(r.cfg.ReinfoURL); err != nil {
		return navErr(config.SiteReinfo, "load", err)
	}

	r.logger.Info("Waiting for page to load...")
	if err := r.browser.WaitVisible("#ddllistado"); err != nil {
		return navErr(config.SiteReinfo, "form", err)
	}

	r.logger.Info("Setting search filters...")
	for _, filter := range reinfoFilters {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.browser.SelectByText(filter.selector, filter.label); err != nil {
			return navErr(config.SiteReinfo, "filters", err)
		}
		// The ASP.NET page re-renders dependent dropdowns after each pick.
		if err := r.browser.Settle(time.Second); err != nil {
			return err
		}
		r.logger.WithFields(logrus.Fields{
			"filter": filter.selector,
			"value":  filter.label,
		}).Info("Filter set")
	}

	r.logger.Info("Searching for results...")
	if err := r.browser.Click("#btnBuscar"); err != nil {
		return navErr(config.SiteReinfo, "search", err)
	}
	if err := r.browser.WaitVisible("#lblhasta"); err != nil {
		return navErr(config.SiteReinfo, "results", err)
	}

	r.logger.Info("Successfully navigated to search results")
	return nil
}

// ExpectedTotal reads the page total the site reports next to the grid.
func (r *Reinfo) ExpectedTotal(ctx context.Context) (string, error) {
	return r.browser.Text("#lblhasta")
}

// CurrentRows parses every data row of the current grid page.
func (r *Reinfo) CurrentRows(ctx context.Context) ([][]string, error) {
	html, err := r.browser.OuterHTML("table.gvRow")
	if err != nil {
		return nil, fmt.Errorf("results grid not found: %w", err)
	}
	return parseGridRows(html)
}

// NextEnabled reports whether the grid's "next" control is clickable. The
// site flags the last page by setting a disabled attribute on it.
func (r *Reinfo) NextEnabled(ctx context.Context) (bool, error) {
	_, disabled, err := r.browser.Attribute("#ImgBtnSiguiente", "disabled")
	if err != nil {
		return false, fmt.Errorf("next control not found: %w", err)
	}
	return !disabled, nil
}

// Advance clicks to the next page and waits the settle interval. The grid
// swaps content in place with no DOM-mutation signal, so a fixed delay is
// the only option.
func (r *Reinfo) Advance(ctx context.Context) error {
	if err := r.browser.Click("#ImgBtnSiguiente"); err != nil {
		return fmt.Errorf("next control not clickable: %w", err)
	}
	return r.browser.Settle(r.cfg.PageSettle)
}

// parseGridRows extracts flat field lists from the grid HTML, skipping the
// decoration rows and each row's leading selector cell.
func parseGridRows(html string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results grid: %w", err)
	}

	var rows [][]string
	doc.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i < headerRowOffset {
			return
		}
		var cells []string
		tr.Find("td").Each(func(j int, td *goquery.Selection) {
			if j == 0 {
				return
			}
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return rows, nil
}
