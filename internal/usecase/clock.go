package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/vitos/coinfolio/internal/domain"
)

// sleep waits for d unless the context is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// stampNow writes the current time under key as unix milliseconds.
func stampNow(ctx context.Context, store domain.KVStore, key string) error {
	return store.Set(ctx, key, strconv.FormatInt(time.Now().UnixMilli(), 10))
}

// isFresh reports whether the timestamp under key is younger than window.
// A missing or unparsable stamp counts as stale.
func isFresh(ctx context.Context, store domain.KVStore, key string, window time.Duration) bool {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return time.Since(time.UnixMilli(millis)) < window
}
