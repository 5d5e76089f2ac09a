package jitter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestDurationWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Duration(100*time.Millisecond, DefaultJitter)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestExponentialBackoffIsCapped(t *testing.T) {
	d := ExponentialBackoff(time.Millisecond, 4*time.Millisecond, 10, 0)
	assert.Equal(t, 4*time.Millisecond, d)

	d = ExponentialBackoff(time.Millisecond, time.Second, 3, 0)
	assert.Equal(t, 8*time.Millisecond, d)
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Attempts: 5, Base: time.Microsecond, Max: time.Millisecond},
		func(err error) bool { return errors.Is(err, errConflict) },
		func(ctx context.Context, attempt int) error {
			calls++
			if attempt < 2 {
				return errConflict
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), Policy{Attempts: 5, Base: time.Microsecond, Max: time.Millisecond},
		func(err error) bool { return errors.Is(err, errConflict) },
		func(ctx context.Context, attempt int) error {
			calls++
			return permanent
		})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Attempts: 3, Base: time.Microsecond, Max: time.Millisecond},
		func(err error) bool { return true },
		func(ctx context.Context, attempt int) error {
			calls++
			return errConflict
		})

	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 3, calls)
}

func TestRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Retry(ctx, Policy{Attempts: 3, Base: time.Hour, Max: time.Hour},
		func(err error) bool { return true },
		func(ctx context.Context, attempt int) error {
			cancel()
			return errConflict
		})

	assert.ErrorIs(t, err, context.Canceled)
}
