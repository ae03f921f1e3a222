package scraper

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// netDriver is the traffic-interception slice of the browser capability set.
type netDriver interface {
	EnableNetwork() error
	DisableNetwork() error
	ListenNetwork(onRequest func(id, url string), onResponse func(id, url string))
	ResponseBody(id string) ([]byte, error)
}

// NetworkCapture recovers response bodies that never reach the visible DOM:
// the page issues a background data fetch after submission and the answer
// only exists in that response. One capture is armed per extraction attempt
// and must be disarmed before the next attempt starts, otherwise exchanges
// from different keys could be cross-matched.
type NetworkCapture struct {
	driver  netDriver
	corr    *Correlator
	timeout time.Duration
	logger  *logrus.Entry

	listenOnce sync.Once
	mu         sync.Mutex
	armed      bool
}

// NewNetworkCapture creates a capture bound to the session's browser.
func NewNetworkCapture(driver netDriver, timeout time.Duration, logger *logrus.Logger) *NetworkCapture {
	return &NetworkCapture{
		driver:  driver,
		corr:    NewCorrelator(),
		timeout: timeout,
		logger:  logger.WithField("component", "netcapture"),
	}
}

// Arm starts interception for the given URL substring patterns. Must be
// called before the submission that triggers the background fetch.
func (nc *NetworkCapture) Arm(patterns ...string) error {
	nc.listenOnce.Do(func() {
		nc.driver.ListenNetwork(nc.onRequest, nc.onResponse)
	})

	if err := nc.driver.EnableNetwork(); err != nil {
		return err
	}

	nc.corr.Reset(patterns...)
	nc.mu.Lock()
	nc.armed = true
	nc.mu.Unlock()

	nc.logger.WithField("patterns", patterns).Debug("Network capture armed")
	return nil
}

// Disarm stops interception and discards every remembered exchange. Runs
// regardless of outcome so nothing leaks into the next key's attempt.
func (nc *NetworkCapture) Disarm() {
	nc.mu.Lock()
	wasArmed := nc.armed
	nc.armed = false
	nc.mu.Unlock()

	nc.corr.Reset()

	if !wasArmed {
		return
	}
	if err := nc.driver.DisableNetwork(); err != nil {
		nc.logger.WithError(err).Warn("Failed to disable network interception")
		return
	}
	nc.logger.Debug("Network capture disarmed")
}

// Collect waits for a matched exchange, fetches its body and parses it as
// JSON. Returns ErrNoMatchingExchange when the capture window closes without
// a match, or PayloadParseError when a matched body does not parse.
func (nc *NetworkCapture) Collect(ctx context.Context) (interface{}, error) {
	deadline := time.After(nc.timeout)
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	for {
		for _, exchange := range nc.corr.Matched() {
			body, err := nc.driver.ResponseBody(exchange.RequestID)
			if err != nil {
				nc.logger.WithError(err).WithField("url", exchange.URL).Warn("Failed to fetch response body")
				continue
			}

			var payload interface{}
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, &PayloadParseError{URL: exchange.URL, Err: err}
			}
			return payload, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrNoMatchingExchange
		case <-tick.C:
		}
	}
}

func (nc *NetworkCapture) onRequest(id, url string) {
	if nc.isArmed() {
		nc.corr.ObserveRequest(id, url)
	}
}

func (nc *NetworkCapture) onResponse(id, _ string) {
	if nc.isArmed() {
		nc.corr.ObserveResponse(id)
	}
}

func (nc *NetworkCapture) isArmed() bool {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.armed
}
