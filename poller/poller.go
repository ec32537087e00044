// Package poller implements the client side of the status poll path: a
// cooperative loop that asks for a payment intent's status on a fixed
// interval until a terminal state, a hard ceiling, or cancellation.
package poller

import (
	"context"
	"errors"
	"time"

	"cod-verifier/models"
)

// CheckFunc asks the server for the current intent status. Implementations
// are a single HTTP round trip; the poller guarantees one in-flight call
// at a time.
type CheckFunc func(ctx context.Context) (models.IntentStatus, error)

// ErrCeilingReached means the intent never reached a terminal state within
// the polling ceiling. It is not proof of payment failure.
var ErrCeilingReached = errors.New("polling ceiling reached without a terminal status")

type Poller struct {
	Interval time.Duration // default 3s
	Ceiling  time.Duration // default 5m
	Check    CheckFunc
}

func New(check CheckFunc) *Poller {
	return &Poller{
		Interval: 3 * time.Second,
		Ceiling:  5 * time.Minute,
		Check:    check,
	}
}

// Run polls until the status turns terminal, the ceiling elapses, or ctx
// is canceled (success elsewhere, navigation away). Check errors are
// tolerated: a failed poll is just retried on the next tick.
func (p *Poller) Run(ctx context.Context) (models.IntentStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Ceiling)
	defer cancel()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var last models.IntentStatus
	for {
		// A failed poll is transient; the loop stays alive until the
		// ceiling.
		status, err := p.Check(ctx)
		if err == nil {
			last = status
			if status.Terminal() {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, ErrCeilingReached
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
