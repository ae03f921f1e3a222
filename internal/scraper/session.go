package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a scraping session.
type State int

const (
	StateInit State = iota
	StateDriverReady
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDriverReady:
		return "driver_ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Driver is the lifecycle slice of the browser owned by a session.
type Driver interface {
	Start(ctx context.Context) error
	Stop()
}

// Runner drives one whole extraction pass against the store.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Session ties driver setup, extraction, persistence and teardown together.
// It owns the browser exclusively for its lifetime. On any failure it writes
// a timestamped partial result set before surfacing the error; an operator
// interrupt is swallowed after the partial save. Teardown runs on every exit
// path.
type Session struct {
	id        string
	driver    Driver
	runner    Runner
	store     *Store
	persister *Persister
	state     State
	logger    *logrus.Entry
}

// NewSession creates a session in the Init state.
func NewSession(driver Driver, runner Runner, store *Store, persister *Persister, logger *logrus.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		driver:    driver,
		runner:    runner,
		store:     store,
		persister: persister,
		state:     StateInit,
		logger: logger.WithFields(logrus.Fields{
			"run_id":   id,
			"strategy": runner.Name(),
		}),
	}
}

// ID returns the unique run identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Run executes the complete scraping process.
func (s *Session) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.driver.Stop()
		s.logger.WithField("duration", time.Since(start).String()).Info("Scraping process finished")
	}()

	if err := s.driver.Start(ctx); err != nil {
		return s.fail(&SetupError{Err: err})
	}
	s.state = StateDriverReady
	s.logger.Info("Web driver initialized successfully")

	s.state = StateRunning
	if err := s.runner.Run(ctx); err != nil {
		return s.fail(err)
	}

	if err := s.persister.Save(s.store); err != nil {
		return s.fail(err)
	}

	s.state = StateCompleted
	return nil
}

// fail transitions to Failed, writes partial results and decides whether the
// error propagates. Operator interrupts are logged and swallowed; everything
// else is re-raised to the caller.
func (s *Session) fail(err error) error {
	s.state = StateFailed
	s.logger.WithError(err).Error("An error occurred during scraping")

	s.logger.Info("Attempting to save partial results...")
	if perr := s.persister.SavePartial(s.store); perr != nil {
		s.logger.WithError(perr).Error("Failed to save partial results")
	}

	if errors.Is(err, context.Canceled) {
		s.logger.Warn("Run interrupted by operator")
		return nil
	}
	return err
}
