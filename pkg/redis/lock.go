package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout ctx 종료 전까지 락을 얻지 못함
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Locker 키 단위 배타 락
type Locker interface {
	// Lock 락을 얻을 때까지 대기, 반환된 unlock 으로 해제
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// compare-and-delete: 본인 토큰일 때만 해제
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker SET NX PX 기반 분산 락
type RedisLocker struct {
	rdb      *redis.Client
	ttl      time.Duration
	interval time.Duration
}

// NewRedisLocker ttl 은 보유자가 죽었을 때 자동 해제 시간
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, interval: 50 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	key = "lock:" + key

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseScript.Run(context.Background(), l.rdb, []string{key}, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(l.interval):
		}
	}
}

// LocalLocker 단일 프로세스용 키별 뮤텍스
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ErrLockTimeout
	}
}

// NewLocker redis 클라이언트가 있으면 분산 락, 없으면 프로세스 내 락
func NewLocker(rdb *redis.Client, ttl time.Duration) Locker {
	if rdb == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(rdb, ttl)
}
