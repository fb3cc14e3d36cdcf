package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init redis 연결 (REDIS_HOST 미설정이면 호출하지 않음)
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient 초기화되지 않았으면 nil
func GetClient() *redis.Client {
	return client
}

func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// RevokeToken 로그아웃된 토큰 ID(jti)를 만료 시각까지 차단
func RevokeToken(ctx context.Context, rdb *redis.Client, jti string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	if err := rdb.Set(ctx, "revoked:"+jti, "1", expiry).Err(); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{"jti": jti})
		return err
	}
	return nil
}

// IsTokenRevoked jti 차단 여부
func IsTokenRevoked(ctx context.Context, rdb *redis.Client, jti string) (bool, error) {
	n, err := rdb.Exists(ctx, "revoked:"+jti).Result()
	if err != nil {
		logger.Error("Failed to check revoked token", err, map[string]interface{}{"jti": jti})
		return false, err
	}
	return n > 0, nil
}
