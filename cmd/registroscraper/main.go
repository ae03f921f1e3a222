package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/consultape/registro-scraper/internal/browser"
	"github.com/consultape/registro-scraper/internal/cache"
	"github.com/consultape/registro-scraper/internal/config"
	"github.com/consultape/registro-scraper/internal/headers"
	"github.com/consultape/registro-scraper/internal/input"
	"github.com/consultape/registro-scraper/internal/logger"
	"github.com/consultape/registro-scraper/internal/scraper"
	"github.com/consultape/registro-scraper/internal/scraper/sites"
)

func main() {
	site := flag.String("site", "", "target site: sunat, redjum or reinfo")
	csvPath := flag.String("csv", "", "path to the CSV file containing lookup keys")
	headless := flag.Bool("headless", false, "run the browser in headless mode")
	flag.Parse()

	if err := run(*site, *csvPath, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(site, csvPath string, headless bool) error {
	// Load .env file if present
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if headless {
		cfg.Browser.Headless = true
	}

	keyColumn, err := config.KeyColumn(site)
	if err != nil {
		return err
	}

	baseName := site + "_scraper"
	log := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Dir, baseName)

	// An operator interrupt cancels this context; every browser call and
	// wait aborts through it so the session can save partial results.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := scraper.NewStore()
	if err := loadStore(store, site, keyColumn, csvPath, log); err != nil {
		return err
	}

	randomHeaders, err := fetchHeaders(ctx, cfg, log)
	if err != nil {
		return err
	}

	drv := browser.New(cfg.Browser, randomHeaders, log)
	persister := scraper.NewPersister(cfg.Output.Dir, baseName, ledgerColumn(keyColumn), log)

	runner, resultCache, err := buildRunner(site, cfg, drv, store, log)
	if err != nil {
		return err
	}
	if resultCache != nil {
		defer resultCache.Close()
	}

	session := scraper.NewSession(drv, runner, store, persister, log)
	return session.Run(ctx)
}

// loadStore fills the store from the key file for sites that take lookup
// keys. The registry-dump site takes none; a -csv passed alongside it is
// called out so the operator knows it has no effect.
func loadStore(store *scraper.Store, site, keyColumn, csvPath string, log *logrus.Logger) error {
	if keyColumn == "" {
		if csvPath != "" {
			log.WithField("path", csvPath).Warnf("Ignoring -csv: site %s dumps the whole registry and takes no lookup keys", site)
		}
		return nil
	}

	if csvPath == "" {
		return fmt.Errorf("site %s requires -csv with a %q column", site, keyColumn)
	}
	keys, err := input.LoadKeys(csvPath, keyColumn)
	if err != nil {
		return err
	}
	store.LoadKeys(keys)
	log.WithFields(logrus.Fields{
		"keys": len(keys),
		"path": csvPath,
	}).Info("Loaded lookup keys")
	return nil
}

// fetchHeaders asks the header-randomization service for a realistic header
// set. Failures degrade to the configured defaults rather than aborting.
func fetchHeaders(ctx context.Context, cfg *config.Config, log *logrus.Logger) (map[string]string, error) {
	client := headers.NewClient(cfg.ScrapeOps, log)
	randomHeaders, err := client.FetchRandom(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("Header randomization unavailable, using defaults")
		return nil, nil
	}
	return randomHeaders, nil
}

// buildRunner assembles the extraction strategy for a site.
func buildRunner(site string, cfg *config.Config, drv *browser.Browser, store *scraper.Store, log *logrus.Logger) (scraper.Runner, *cache.ResultCache, error) {
	switch site {
	case config.SiteSunat:
		resultCache := cache.New(cfg.Redis, log)
		strategy := sites.NewSunat(drv, cfg.Scraper, log)
		return scraper.NewBatch(strategy, store, resultCache, cfg.Scraper.KeysPerMinute, log), resultCache, nil

	case config.SiteRedjum:
		resultCache := cache.New(cfg.Redis, log)
		capture := scraper.NewNetworkCapture(drv, cfg.Scraper.CaptureTimeout, log)
		responder := scraper.NewStdinResponder(os.Stdin, os.Stdout, log)
		strategy := sites.NewRedjum(drv, capture, responder, cfg.Scraper, log)
		return scraper.NewBatch(strategy, store, resultCache, cfg.Scraper.KeysPerMinute, log), resultCache, nil

	case config.SiteReinfo:
		store.SetColumns(sites.ReinfoColumns)
		pager := sites.NewReinfo(drv, cfg.Scraper, log)
		return scraper.NewTraversal(pager, store, log), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown site %q", site)
	}
}

func ledgerColumn(keyColumn string) string {
	if keyColumn == "" {
		return "key"
	}
	return keyColumn
}
