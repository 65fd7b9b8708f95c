package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		Attempts:   attempts,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), "serper", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), "serper", func(context.Context) error {
		calls++
		if calls < 3 {
			return MarkTransient(eris.New("status 503"), 503)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	permanent := eris.New("status 403")
	err := Do(context.Background(), fastPolicy(3), "serper", func(context.Context) error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_AttemptBudgetExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), "serper", func(context.Context) error {
		calls++
		return MarkTransient(eris.New("still down"), 502)
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastPolicy(5), "serper", func(context.Context) error {
		calls++
		cancel()
		return MarkTransient(eris.New("timeout"), 0)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CustomClassifier(t *testing.T) {
	calls := 0
	p := fastPolicy(3)
	p.Classify = func(error) bool { return false }
	_ = Do(context.Background(), p, "serper", func(context.Context) error {
		calls++
		return MarkTransient(eris.New("would normally retry"), 500)
	})
	assert.Equal(t, 1, calls)
}

func TestDoVal(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastPolicy(3), "tavily", func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, MarkTransient(eris.New("status 429"), 429)
		}
		return []string{"ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
	assert.Equal(t, 2, calls)
}

func TestDoVal_ZeroValueOnFailure(t *testing.T) {
	got, err := DoVal(context.Background(), NoRetry(), "tavily", func(context.Context) (int, error) {
		return 42, eris.New("nope")
	})
	assert.Error(t, err)
	assert.Zero(t, got)
}

func TestPolicyDelay_Capped(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 10}.withDefaults()
	assert.LessOrEqual(t, p.delay(5), 3*time.Second)
}
