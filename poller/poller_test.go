package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cod-verifier/models"
)

func TestRunStopsOnTerminalStatus(t *testing.T) {
	var calls int32
	p := &Poller{
		Interval: time.Millisecond,
		Ceiling:  time.Second,
		Check: func(ctx context.Context) (models.IntentStatus, error) {
			if atomic.AddInt32(&calls, 1) >= 3 {
				return models.IntentCaptured, nil
			}
			return models.IntentAwaiting, nil
		},
	}

	status, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IntentCaptured, status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRunCeilingReached(t *testing.T) {
	p := &Poller{
		Interval: time.Millisecond,
		Ceiling:  20 * time.Millisecond,
		Check: func(ctx context.Context) (models.IntentStatus, error) {
			return models.IntentAwaiting, nil
		},
	}

	status, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrCeilingReached)
	assert.Equal(t, models.IntentAwaiting, status)
}

func TestRunCanceledByCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		Interval: time.Millisecond,
		Ceiling:  time.Second,
		Check: func(ctx context.Context) (models.IntentStatus, error) {
			cancel() // simulate navigation away mid-flight
			return models.IntentAwaiting, nil
		},
	}

	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunToleratesCheckErrors(t *testing.T) {
	var calls int32
	p := &Poller{
		Interval: time.Millisecond,
		Ceiling:  time.Second,
		Check: func(ctx context.Context) (models.IntentStatus, error) {
			switch atomic.AddInt32(&calls, 1) {
			case 1:
				return "", errors.New("transient network error")
			default:
				return models.IntentFailed, nil
			}
		},
	}

	status, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IntentFailed, status)
}
