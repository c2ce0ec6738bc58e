package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStrategy struct {
	name    string
	results []error
	value   string
	calls   int
}

func (c *countingStrategy) Name() string { return c.name }

func (c *countingStrategy) Run(ctx context.Context, in string) (string, error) {
	idx := c.calls
	c.calls++
	if idx < len(c.results) && c.results[idx] != nil {
		return "", c.results[idx]
	}
	return c.value + ":" + in, nil
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("first strategy succeeds", func(t *testing.T) {
		first := &countingStrategy{name: "first", value: "a"}
		second := &countingStrategy{name: "second", value: "b"}

		out, attempts, err := Run[string, string](ctx, Policy{}, "apple", first, second)

		require.NoError(t, err)
		assert.Equal(t, "a:apple", out)
		require.Len(t, attempts, 1)
		assert.Equal(t, "first", attempts[0].Strategy)
		assert.True(t, attempts[0].Succeeded())
		assert.Equal(t, 0, second.calls)
	})

	t.Run("falls through in order", func(t *testing.T) {
		first := &countingStrategy{name: "first", results: []error{errors.New("boom")}}
		second := &countingStrategy{name: "second", value: "b"}

		out, attempts, err := Run[string, string](ctx, Policy{}, "apple", first, second)

		require.NoError(t, err)
		assert.Equal(t, "b:apple", out)
		require.Len(t, attempts, 2)
		assert.Equal(t, "first", attempts[0].Strategy)
		assert.False(t, attempts[0].Succeeded())
		assert.Equal(t, "boom", attempts[0].Describe())
		assert.Equal(t, "second", attempts[1].Strategy)
		assert.True(t, attempts[1].Succeeded())
	})

	t.Run("retries each strategy per policy", func(t *testing.T) {
		flaky := &countingStrategy{name: "flaky", value: "ok", results: []error{errors.New("503")}}

		out, attempts, err := Run[string, string](ctx, Policy{Attempts: 3}, "x", flaky)

		require.NoError(t, err)
		assert.Equal(t, "ok:x", out)
		require.Len(t, attempts, 2)
		assert.Equal(t, 1, attempts[0].Try)
		assert.Equal(t, 2, attempts[1].Try)
		assert.Equal(t, 3, attempts[1].Of)
	})

	t.Run("exhausted", func(t *testing.T) {
		cause := errors.New("still down")
		a := &countingStrategy{name: "a", results: []error{errors.New("down"), errors.New("down")}}
		b := &countingStrategy{name: "b", results: []error{cause, cause}}

		_, attempts, err := Run[string, string](ctx, Policy{Attempts: 2}, "x", a, b)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExhausted)
		assert.ErrorIs(t, err, cause)
		assert.Len(t, attempts, 4)
	})

	t.Run("no strategies", func(t *testing.T) {
		_, attempts, err := Run[string, string](ctx, Policy{}, "x")
		assert.ErrorIs(t, err, ErrExhausted)
		assert.Empty(t, attempts)
	})

	t.Run("attempt is bounded by timeout", func(t *testing.T) {
		slow := Func("slow", func(ctx context.Context, in string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
		fast := Func("fast", func(ctx context.Context, in string) (string, error) {
			return "fast", nil
		})

		out, attempts, err := Run(ctx, Policy{Timeout: 10 * time.Millisecond}, "x", slow, fast)

		require.NoError(t, err)
		assert.Equal(t, "fast", out)
		require.Len(t, attempts, 2)
		assert.ErrorIs(t, attempts[0].Err, context.DeadlineExceeded)
		assert.Equal(t, "timed out after 10ms", attempts[0].Describe())
	})

	t.Run("late answer after deadline is a failure", func(t *testing.T) {
		stubborn := Func("stubborn", func(ctx context.Context, in string) (string, error) {
			<-ctx.Done()
			return "too late", nil
		})

		_, attempts, err := Run(ctx, Policy{Timeout: 5 * time.Millisecond}, "x", stubborn)

		require.Error(t, err)
		require.Len(t, attempts, 1)
		assert.ErrorIs(t, attempts[0].Err, context.DeadlineExceeded)
	})

	t.Run("cancelled parent stops the chain", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		never := &countingStrategy{name: "never", value: "x"}

		_, attempts, err := Run[string, string](cctx, Policy{}, "x", never)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, attempts)
		assert.Equal(t, 0, never.calls)
	})
}

func TestPolicyDefaults(t *testing.T) {
	assert.Equal(t, 1, Policy{}.attempts())
	assert.Equal(t, DefaultTimeout, Policy{}.timeout())
	assert.Equal(t, 4, Policy{Attempts: 4}.attempts())
	assert.Equal(t, time.Second, Policy{Timeout: time.Second}.timeout())
}
