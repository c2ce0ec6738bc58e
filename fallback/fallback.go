package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrExhausted is returned when every strategy in a chain failed.
var ErrExhausted = errors.New("all strategies failed")

// DefaultTimeout bounds one attempt when a Policy does not set its own.
const DefaultTimeout = 15 * time.Second

// Policy is how a chain is run: how many tries each strategy gets and how long each try may take.
type Policy struct {
	Attempts int
	Timeout  time.Duration
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// Strategy is one way of producing Out from In.
type Strategy[In, Out any] interface {
	Name() string
	Run(ctx context.Context, in In) (Out, error)
}

type funcStrategy[In, Out any] struct {
	name string
	fn   func(ctx context.Context, in In) (Out, error)
}

// Func adapts a plain function into a Strategy.
func Func[In, Out any](name string, fn func(ctx context.Context, in In) (Out, error)) Strategy[In, Out] {
	return funcStrategy[In, Out]{name: name, fn: fn}
}

func (f funcStrategy[In, Out]) Name() string { return f.name }

func (f funcStrategy[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	return f.fn(ctx, in)
}

// Attempt records a single try of a single strategy.
type Attempt struct {
	Strategy string
	Try      int
	Of       int
	Err      error
	Duration time.Duration
	Timeout  time.Duration
}

func (a Attempt) Succeeded() bool {
	return a.Err == nil
}

// Describe returns a human-readable cause for a failed attempt.
func (a Attempt) Describe() string {
	if a.Err == nil {
		return "succeeded"
	}
	if errors.Is(a.Err, context.DeadlineExceeded) {
		return fmt.Sprintf("timed out after %s", a.Timeout)
	}
	if errors.Is(a.Err, context.Canceled) {
		return "cancelled"
	}
	return a.Err.Error()
}

// Run tries each strategy in order, each up to p.Attempts times, and returns the first success.
// Every try is recorded in the returned attempts, whatever its outcome.
func Run[In, Out any](ctx context.Context, p Policy, in In, strategies ...Strategy[In, Out]) (Out, []Attempt, error) {
	var (
		zero     Out
		attempts []Attempt
		lastErr  error
	)

	for _, s := range strategies {
		for try := 1; try <= p.attempts(); try++ {
			if err := ctx.Err(); err != nil {
				return zero, attempts, fmt.Errorf("%w: %w", ErrExhausted, err)
			}

			out, a := runOnce(ctx, p, s, in, try)
			attempts = append(attempts, a)
			if a.Succeeded() {
				return out, attempts, nil
			}

			slog.Warn("FALLBACK: Strategy attempt failed",
				"strategy", s.Name(),
				"try", try,
				"error", a.Err)
			lastErr = a.Err
		}
	}

	if lastErr == nil {
		return zero, attempts, fmt.Errorf("%w: no strategies configured", ErrExhausted)
	}
	return zero, attempts, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

func runOnce[In, Out any](ctx context.Context, p Policy, s Strategy[In, Out], in In, try int) (Out, Attempt) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	start := time.Now()
	out, err := s.Run(ctx, in)
	if err == nil && ctx.Err() != nil {
		// The strategy ignored its deadline; its late answer does not count.
		err = ctx.Err()
	}

	return out, Attempt{
		Strategy: s.Name(),
		Try:      try,
		Of:       p.attempts(),
		Err:      err,
		Duration: time.Since(start),
		Timeout:  p.timeout(),
	}
}
