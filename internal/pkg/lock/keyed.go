package lock

import (
	"context"

	"github.com/im7mortal/kmutex"
)

// KeyedLocker 进程内按账号加锁
type KeyedLocker struct {
	km *kmutex.Kmutex
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{km: kmutex.New()}
}

func (s *KeyedLocker) Lock(ctx context.Context, accountID uint64) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.km.Lock(accountID)
	return func() { s.km.Unlock(accountID) }, nil
}
