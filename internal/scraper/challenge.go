package scraper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ChallengeResponder supplies the solution to an anti-automation challenge.
// Solving is a genuine suspension point: the pipeline holds no browser
// resource while waiting, and the wait must honor context cancellation so an
// operator interrupt still reaches the session's failure path.
type ChallengeResponder interface {
	Solve(ctx context.Context, key string) (string, error)
}

// StdinResponder blocks on a synchronous operator prompt. There is no
// automated solver; a wrong solution surfaces later as an extraction
// failure for that key, not as a responder error.
type StdinResponder struct {
	reader *bufio.Reader
	out    io.Writer
	logger *logrus.Entry
}

// NewStdinResponder creates a responder reading solutions from in.
func NewStdinResponder(in io.Reader, out io.Writer, logger *logrus.Logger) *StdinResponder {
	return &StdinResponder{
		reader: bufio.NewReader(in),
		out:    out,
		logger: logger.WithField("component", "challenge"),
	}
}

type solveResult struct {
	solution string
	err      error
}

// Solve prompts the operator and waits for a line of input.
func (r *StdinResponder) Solve(ctx context.Context, key string) (string, error) {
	r.logger.WithField("key", key).Info("Waiting for operator to solve challenge...")
	fmt.Fprintf(r.out, "Enter the challenge solution for %s: ", key)

	ch := make(chan solveResult, 1)
	go func() {
		line, err := r.reader.ReadString('\n')
		ch <- solveResult{solution: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", &ChallengeError{Err: res.err}
		}
		r.logger.Debug("Challenge solution received")
		return res.solution, nil
	}
}
