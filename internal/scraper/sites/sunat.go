package sites

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/consultape/registro-scraper/internal/browser"
	"github.com/consultape/registro-scraper/internal/config"
	"github.com/consultape/registro-scraper/internal/scraper"
)

const sunatPanel = "body > div > div.row > div > div.panel.panel-primary > div.list-group > "

// fieldSpec is one output field with its ordered selector fallback chain.
// The SUNAT result panel shifts its child positions depending on which
// optional sections a taxpayer has, so several fields carry a second
// selector one position up.
type fieldSpec struct {
	name      string
	selectors []string
}

var sunatFields = []fieldSpec{
	{"ruc_nombre", []string{
		sunatPanel + "div:nth-child(1) > div > div.col-sm-7",
	}},
	{"tipo_contribuyente", []string{
		sunatPanel + "div:nth-child(2) > div > div.col-sm-7 > p",
	}},
	{"tipo_documento", []string{
		sunatPanel + "div:nth-child(3) > div > div.col-sm-7 > p",
	}},
	{"nombre_comercial", []string{
		sunatPanel + "div:nth-child(4) > div > div.col-sm-7 > p",
		sunatPanel + "div:nth-child(3) > div > div.col-sm-7 > p",
	}},
	{"fecha_inscripcion", []string{
		sunatPanel + "div:nth-child(5) > div > div:nth-child(2) > p",
	}},
	{"fecha_inicio_actividades", []string{
		sunatPanel + "div:nth-child(5) > div > div:nth-child(4) > p",
		sunatPanel + "div:nth-child(4) > div > div:nth-child(4) > p",
	}},
	{"estado", []string{
		sunatPanel + "div:nth-child(6) > div > div.col-sm-7 > p",
	}},
	{"domicilio", []string{
		sunatPanel + "div:nth-child(8) > div > div.col-sm-7 > p",
		sunatPanel + "div:nth-child(7) > div > div.col-sm-7 > p",
	}},
	{"sistema_emision", []string{
		sunatPanel + "div:nth-child(9) > div > div:nth-child(2) > p",
	}},
	{"actividad_comercio_exterior", []string{
		sunatPanel + "div:nth-child(9) > div > div:nth-child(4) > p",
		sunatPanel + "div:nth-child(8) > div > div:nth-child(4) > p",
	}},
	{"sistema_contabilidad", []string{
		sunatPanel + "div:nth-child(10) > div > div.col-sm-7 > p",
		sunatPanel + "div:nth-child(9) > div > div:nth-child(2) > p",
	}},
	{"actividades_economicas", []string{
		sunatPanel + "div:nth-child(11) > div > div.col-sm-7 > table > tbody > tr > td",
		sunatPanel + "div:nth-child(10) > div > div.col-sm-7 > table > tbody > tr:nth-child(1) > td",
	}},
	{"emisor_electronico_desde", []string{
		sunatPanel + "div:nth-child(14) > div > div.col-sm-7 > p",
	}},
	{"comprobantes_electronicos", []string{
		sunatPanel + "div:nth-child(15) > div > div.col-sm-7 > p",
	}},
}

// resolveField walks a field's fallback chain and returns the first value
// the page actually has.
func resolveField(get func(sel string) (string, bool), spec fieldSpec) (string, bool) {
	for _, sel := range spec.selectors {
		if value, ok := get(sel); ok && value != "" {
			return value, true
		}
	}
	return "", false
}

// Sunat looks up RUC numbers on the SUNAT taxpayer registry. The answer is
// rendered into the DOM, so extraction walks the result panel with the
// selector table above.
type Sunat struct {
	browser *browser.Browser
	cfg     config.ScraperConfig
	logger  *logrus.Entry
}

// NewSunat creates the SUNAT lookup strategy.
func NewSunat(b *browser.Browser, cfg config.ScraperConfig, logger *logrus.Logger) *Sunat {
	return &Sunat{
		browser: b,
		cfg:     cfg,
		logger:  logger.WithField("site", config.SiteSunat),
	}
}

// Name returns the site name.
func (s *Sunat) Name() string { return config.SiteSunat }

// Navigate resets the browser, loads the lookup form and submits the key.
func (s *Sunat) Navigate(ctx context.Context, key string) error {
	if err := s.browser.Reset(); err != nil {
		return navErr(config.SiteSunat, "cleanup", err)
	}
	if err := s.browser.Navigate(s.cfg.SunatURL); err != nil {
		return navErr(config.SiteSunat, "load", err)
	}

	if err := s.browser.ClearAndType("#txtRuc", key); err != nil {
		return navErr(config.SiteSunat, "fill", err)
	}
	s.logger.WithField("key", key).Info("Inserting RUC")

	if err := s.browser.Click("#btnAceptar"); err != nil {
		return navErr(config.SiteSunat, "submit", err)
	}

	return s.browser.Settle(s.cfg.SubmitSettle)
}

// Extract pulls every configured field out of the result panel. Fields whose
// whole fallback chain misses are emitted as null rather than dropped.
func (s *Sunat) Extract(ctx context.Context, key string) (interface{}, error) {
	if err := s.browser.WaitVisible("div.list-group"); err != nil {
		return nil, navErr(config.SiteSunat, "results", err)
	}
	s.logger.WithField("key", key).Info("Main container found, extracting data")

	data := make(map[string]interface{}, len(sunatFields))
	for _, spec := range sunatFields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if value, ok := resolveField(s.browser.FieldText, spec); ok {
			data[spec.name] = value
		} else {
			data[spec.name] = nil
		}
	}

	s.logger.WithField("key", key).Info("Successfully extracted all data")
	return data, nil
}

func navErr(site, step string, err error) *scraper.NavigationError {
	return &scraper.NavigationError{Site: site, Step: step, Err: err}
}
