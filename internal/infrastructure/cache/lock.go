package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const runLockKey = "loan_master:run_lock"

// release only deletes the key while this holder still owns it.
var release = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RunLock is a redis lock held for the duration of one loan master run.
type RunLock struct {
	rdb   *redis.Client
	key   string
	owner string
}

func NewRunLock(rdb *redis.Client, owner string) *RunLock {
	return &RunLock{rdb: rdb, key: runLockKey, owner: owner}
}

func (l *RunLock) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return ok, nil
}

func (l *RunLock) Unlock(ctx context.Context) error {
	if err := release.Run(ctx, l.rdb, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

// Holder reports the owner currently holding the lock, or "" when free.
func (l *RunLock) Holder(ctx context.Context) (string, error) {
	v, err := l.rdb.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}
