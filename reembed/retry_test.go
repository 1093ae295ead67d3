package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/idrak/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	persistent := errors.New("persistent error")

	tests := []struct {
		name         string
		maxAttempts  int
		failures     int
		err          error
		wantErr      error
		wantAttempts int
	}{
		{name: "first try", maxAttempts: 3, failures: 0, wantAttempts: 1},
		{name: "eventual success", maxAttempts: 5, failures: 2, err: persistent, wantAttempts: 3},
		{name: "all attempts fail", maxAttempts: 3, failures: 10, err: persistent, wantErr: persistent, wantAttempts: 3},
		{
			name:         "invalid request is not retried",
			maxAttempts:  5,
			failures:     10,
			err:          fmt.Errorf("%w: bad input", core.ErrInvalidRequest),
			wantErr:      core.ErrInvalidRequest,
			wantAttempts: 1,
		},
		{name: "zero attempts", maxAttempts: 0, wantErr: ErrInvalidMaxAttempts, wantAttempts: 0},
		{name: "negative attempts", maxAttempts: -1, wantErr: ErrInvalidMaxAttempts, wantAttempts: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithBackoff(context.Background(), func() error {
				attempts++
				if attempts <= tt.failures {
					return tt.err
				}
				return nil
			}, tt.maxAttempts, time.Millisecond)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := RetryWithBackoff(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, 10, 10*time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := RetryWithBackoff(ctx, func() error {
		attempts++
		time.Sleep(30 * time.Millisecond)
		return errors.New("error")
	}, 10, 10*time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, attempts, 3)
}

func TestRetryWithBackoff_OperationReturnsContextError(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return fmt.Errorf("embed: %w", context.DeadlineExceeded)
	}, 5, time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_DelayGrows(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	last := time.Now()

	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(last))
		}
		last = time.Now()
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}, 5, 10*time.Millisecond)

	require.NoError(t, err)
	require.Len(t, delays, 3)
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}
