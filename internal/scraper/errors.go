package scraper

import (
	"errors"
	"fmt"
)

// ErrNoMatchingExchange reports that no background request matching the
// armed URL patterns was observed within the capture window.
var ErrNoMatchingExchange = errors.New("no matching network exchange observed")

// ErrNoKeys reports that a per-key strategy was started without any input
// keys. The registry-dump strategy tolerates an empty key set; the lookup
// strategies treat it as a configuration error.
var ErrNoKeys = errors.New("no lookup keys provided")

// SetupError means the driver or session could not start. Fatal: the run
// aborts before any key is attempted.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("session setup failed: %v", e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

// NavigationError means the target page did not reach the required state:
// the readiness signal timed out or an expected control is missing. Per-key.
type NavigationError struct {
	Site string
	Step string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("%s navigation failed at %s: %v", e.Site, e.Step, e.Err)
}
func (e *NavigationError) Unwrap() error { return e.Err }

// ChallengeError means the human challenge solution could not be obtained.
// A wrong solution is not a ChallengeError; it surfaces later as an
// extraction failure for that key.
type ChallengeError struct {
	Err error
}

func (e *ChallengeError) Error() string { return fmt.Sprintf("challenge unresolved: %v", e.Err) }
func (e *ChallengeError) Unwrap() error { return e.Err }

// PayloadParseError means a correlated response body was captured but could
// not be parsed as the expected payload format. Per-key.
type PayloadParseError struct {
	URL string
	Err error
}

func (e *PayloadParseError) Error() string {
	return fmt.Sprintf("failed to parse payload from %s: %v", e.URL, e.Err)
}
func (e *PayloadParseError) Unwrap() error { return e.Err }

// PageTransitionError means the results grid or its paging control vanished
// mid-traversal. Fatal for the registry-dump strategy, which has no per-key
// granularity to fall back on.
type PageTransitionError struct {
	Page int
	Err  error
}

func (e *PageTransitionError) Error() string {
	return fmt.Sprintf("page transition failed on page %d: %v", e.Page, e.Err)
}
func (e *PageTransitionError) Unwrap() error { return e.Err }

// IsFatal reports whether an error must abort the whole run instead of being
// contained as a per-key failure.
func IsFatal(err error) bool {
	var setup *SetupError
	var transition *PageTransitionError
	if errors.As(err, &setup) || errors.As(err, &transition) {
		return true
	}
	return errors.Is(err, ErrNoKeys)
}
