package redis

import (
	"FollowTracker/internal/pkg/consts"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const retryInterval = 200 * time.Millisecond

var ErrLockTimeout = errors.New("redis lock acquire timeout")

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// AccountLocker 基于 SETNX 的跨进程账号锁
type AccountLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAccountLocker(rdb *redis.Client, ttl time.Duration) *AccountLocker {
	return &AccountLocker{rdb: rdb, ttl: ttl}
}

// Lock 阻塞直到拿到锁或 ctx 结束
func (s *AccountLocker) Lock(ctx context.Context, accountID uint64) (func(), error) {
	key := consts.AccountSnapshotLock + strconv.FormatUint(accountID, 10)
	value := uuid.NewString()

	for {
		ok, err := s.rdb.SetNX(ctx, key, value, s.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockTimeout, ctx.Err())
		case <-time.After(retryInterval):
		}
	}

	return func() {
		// 使用 Background context 防止 cancel 导致锁未释放
		if err := s.rdb.Eval(context.Background(), unlockScript, []string{key}, value).Err(); err != nil {
			log.Error("redis unlock error", "key", key, "err", err)
		}
	}, nil
}
