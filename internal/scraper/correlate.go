package scraper

import (
	"strings"
	"sync"

	"github.com/consultape/registro-scraper/internal/models"
)

// Correlator matches asynchronous request/response log events by identifier.
// Background data fetches complete asynchronously relative to page load, so
// the request identifier is the only reliable join key between the "request
// sent" and "response received" events, which can arrive in either order.
//
// Safe for concurrent use; the driver delivers events from its own
// goroutine.
type Correlator struct {
	mu       sync.Mutex
	patterns []string
	pending  map[string]string
	matched  []models.Exchange
}

// NewCorrelator creates a correlator armed with URL substring patterns.
func NewCorrelator(patterns ...string) *Correlator {
	return &Correlator{
		patterns: patterns,
		pending:  make(map[string]string),
	}
}

// ObserveRequest records a background request whose URL matches one of the
// armed patterns, remembering its identifier for response correlation.
func (c *Correlator) ObserveRequest(id, url string) {
	if !c.matchesAny(url) {
		return
	}
	c.mu.Lock()
	c.pending[id] = url
	c.mu.Unlock()
}

// ObserveResponse reports whether the response belongs to a remembered
// request. Matched identifiers are consumed so one exchange is yielded at
// most once.
func (c *Correlator) ObserveResponse(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	url, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)
	c.matched = append(c.matched, models.Exchange{RequestID: id, URL: url})
	return true
}

// Matched returns the exchanges whose responses have arrived, in arrival
// order.
func (c *Correlator) Matched() []models.Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Exchange, len(c.matched))
	copy(out, c.matched)
	return out
}

// Reset drops all remembered state and re-arms with new patterns. Called on
// disarm so exchanges can never leak into the next attempt.
func (c *Correlator) Reset(patterns ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.patterns = patterns
	c.pending = make(map[string]string)
	c.matched = nil
}

func (c *Correlator) matchesAny(url string) bool {
	c.mu.Lock()
	patterns := c.patterns
	c.mu.Unlock()

	for _, p := range patterns {
		if p != "" && strings.Contains(url, p) {
			return true
		}
	}
	return false
}
