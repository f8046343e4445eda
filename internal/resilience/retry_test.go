package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps test backoffs in the microsecond range.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Microsecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), DefaultRetryConfig(), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDo_ThrottledListingFetchRecovers(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("ebay: call failed: status 429"), 429)
		}
		return "listings", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "listings", got)
	assert.Equal(t, 3, calls)
}

func TestDo_RuleSourceOutageExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		return "", NewTransientError(eris.New("fetcher: get export url: status 503"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "status 503")
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		return "", eris.New("ebay: invalid refresh token")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures must surface immediately")
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, fastRetry(5), func(context.Context) (string, error) {
		calls++
		cancel()
		return "", NewTransientError(eris.New("status 502"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryObservesEachAttempt(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, _ = Do(context.Background(), cfg, func(context.Context) (string, error) {
		return "", NewTransientError(eris.New("status 500"), 500)
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_ZeroConfigGetsDefaults(t *testing.T) {
	calls := 0
	cfg := RetryConfig{InitialBackoff: time.Microsecond, MaxBackoff: time.Millisecond}
	_, err := Do(context.Background(), cfg, func(context.Context) (string, error) {
		calls++
		return "", NewTransientError(eris.New("status 503"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, DefaultRetryConfig().MaxAttempts, calls)
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	}
	assert.Equal(t, 100*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, backoff(1, cfg))
	assert.Equal(t, 400*time.Millisecond, backoff(2, cfg))
	// 100ms * 2^5 = 3.2s, clipped to the cap.
	assert.Equal(t, time.Second, backoff(5, cfg))
}

func TestBackoff_JitterStaysInRange(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
	for i := 0; i < 50; i++ {
		d := backoff(0, cfg)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}
