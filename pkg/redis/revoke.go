package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore 로그아웃된 토큰 ID(jti) 차단 목록
type TokenStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisTokenStore struct {
	rdb *redis.Client
}

func (s *redisTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return RevokeToken(ctx, s.rdb, jti, ttl)
}

func (s *redisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return IsTokenRevoked(ctx, s.rdb, jti)
}

// MemoryTokenStore 단일 프로세스용 차단 목록
type MemoryTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryTokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, k)
		}
	}
	s.revoked[jti] = now.Add(ttl)
	return nil
}

func (s *MemoryTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[jti]
	return ok && s.now().Before(until), nil
}

// NewTokenStore redis 클라이언트가 있으면 redis, 없으면 메모리
func NewTokenStore(rdb *redis.Client) TokenStore {
	if rdb == nil {
		return NewMemoryTokenStore()
	}
	return &redisTokenStore{rdb: rdb}
}
