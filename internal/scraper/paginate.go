package scraper

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Pager is the site-specific surface of one results grid: land on the first
// page, read rows, and advance.
type Pager interface {
	Name() string

	// Open navigates to the first results page, including any search
	// filter setup.
	Open(ctx context.Context) error

	// ExpectedTotal reads the site's reported page total. Used for
	// progress logging only, never for loop control: the reported total
	// can drift from the true page count.
	ExpectedTotal(ctx context.Context) (string, error)

	// CurrentRows parses every data row of the current page into flat
	// field lists.
	CurrentRows(ctx context.Context) ([][]string, error)

	// NextEnabled reports the enabled state of the "next" control. Its
	// disabled state is the sole termination condition of a traversal.
	NextEnabled(ctx context.Context) (bool, error)

	// Advance clicks the "next" control and waits the settle interval.
	Advance(ctx context.Context) error
}

// Traversal pages through an entire results grid, appending each page's rows
// to the store until the "next" control reports disabled. Any structural
// failure mid-traversal is fatal for the run: this strategy has a single
// logical unit of work, there is no per-key granularity to fall back on.
type Traversal struct {
	pager  Pager
	store  *Store
	logger *logrus.Entry
}

// NewTraversal creates a traversal runner for a pager.
func NewTraversal(pager Pager, store *Store, logger *logrus.Logger) *Traversal {
	return &Traversal{
		pager:  pager,
		store:  store,
		logger: logger.WithField("component", "traversal"),
	}
}

// Name returns the pager's site name.
func (t *Traversal) Name() string {
	return t.pager.Name()
}

// Run drives the full traversal.
func (t *Traversal) Run(ctx context.Context) error {
	if err := t.pager.Open(ctx); err != nil {
		return err
	}

	total, err := t.pager.ExpectedTotal(ctx)
	if err != nil {
		t.logger.WithError(err).Warn("Could not read expected page total")
		total = "?"
	}

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		t.logger.Infof("Processing page %d of %s", page, total)

		rows, err := t.pager.CurrentRows(ctx)
		if err != nil {
			return t.fatal(page, err)
		}
		t.store.AppendRows(rows)

		enabled, err := t.pager.NextEnabled(ctx)
		if err != nil {
			return t.fatal(page, err)
		}
		if !enabled {
			break
		}

		if err := t.pager.Advance(ctx); err != nil {
			return t.fatal(page, err)
		}
		page++
	}

	t.logger.WithFields(logrus.Fields{
		"pages": page,
		"rows":  len(t.store.Rows()),
	}).Info("Traversal finished")
	return nil
}

func (t *Traversal) fatal(page int, err error) error {
	var transition *PageTransitionError
	if errors.As(err, &transition) || errors.Is(err, context.Canceled) {
		return err
	}
	return &PageTransitionError{Page: page, Err: err}
}
