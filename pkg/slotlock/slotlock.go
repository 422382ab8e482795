// Package slotlock serializes work on a single booking slot, a (room, date)
// pair, so that the overlap check and the insert that follows it cannot
// interleave with another request for the same slot.
package slotlock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrLockTimeout = errors.New("timed out waiting for slot lock")

// Release gives the lock back. It is safe to call once.
type Release func() error

type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	Acquire(ctx context.Context, key string) (Release, error)
}

func Key(roomID, date string) string {
	return fmt.Sprintf("booking_slot_%s_%s", roomID, date)
}

// TryFunc makes one attempt at taking a lock. It reports false when the lock
// is held by someone else.
type TryFunc func(ctx context.Context) (bool, error)

// Poll calls try every interval until it succeeds, fails, or ctx is done.
func Poll(ctx context.Context, key string, interval time.Duration, try TryFunc) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctxErr(ctx, key)
		case <-timer.C:
		}

		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		timer.Reset(interval)
	}
}

func ctxErr(ctx context.Context, key string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrLockTimeout, key)
	}
	return ctx.Err()
}
