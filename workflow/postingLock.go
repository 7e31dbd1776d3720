package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/utils"
)

func invoiceLockKey(id int) string {
	return fmt.Sprintf("ledger:invoice:%d", id)
}

func moneyAccountLockKey(id int) string {
	return fmt.Sprintf("ledger:money_account:%d", id)
}

func bookingLockKey(id int) string {
	return fmt.Sprintf("ledger:booking:%d", id)
}

// lockKeys collects the keys for the non-zero ids.
func lockKeys(bookingId int, invoiceIds []*int, moneyAccountIds []*int) []string {
	var keys []string
	if bookingId > 0 {
		keys = append(keys, bookingLockKey(bookingId))
	}
	for _, id := range invoiceIds {
		if id != nil && *id > 0 {
			keys = append(keys, invoiceLockKey(*id))
		}
	}
	for _, id := range moneyAccountIds {
		if id != nil && *id > 0 {
			keys = append(keys, moneyAccountLockKey(*id))
		}
	}
	return keys
}

// obtainLocks takes every key in sorted order and returns a release func.
// Without a redis locker it is a no-op; row locks still serialise writers.
func (l *Ledger) obtainLocks(ctx context.Context, keys ...string) (func(), error) {
	if l.locker == nil || len(keys) == 0 {
		return func() {}, nil
	}
	keys = utils.UniqueSlice(keys)
	sort.Strings(keys)

	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				config.LogError(l.logger, "workflow", "obtainLocks", "release "+held[i].Key(), nil, err)
			}
		}
	}
	for _, key := range keys {
		lock, err := l.locker.Obtain(ctx, key, l.lockTTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		})
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, utils.NewConflictError("%s is busy, retry shortly", key)
			}
			return nil, err
		}
		held = append(held, lock)
	}
	return release, nil
}
