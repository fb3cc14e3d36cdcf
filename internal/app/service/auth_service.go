package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"github.com/ikkim/coupang-partners-backend/pkg/redis"
	"github.com/ikkim/coupang-partners-backend/pkg/util"
)

// RoleAdmin 운영 API 에 필요한 역할
const RoleAdmin = "admin"

var ErrTokenRevoked = errors.New("token has been revoked")

type AuthService interface {
	Login(username, password string) (*util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, claims *util.Claims) error
	IsRevoked(ctx context.Context, claims *util.Claims) (bool, error)
}

type authService struct {
	admin         config.AdminConfig
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	tokens        redis.TokenStore
}

func NewAuthService(
	admin config.AdminConfig,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
	tokens redis.TokenStore,
) AuthService {
	if tokens == nil {
		tokens = redis.NewMemoryTokenStore()
	}
	return &authService{
		admin:         admin,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		tokens:        tokens,
	}
}

func (s *authService) Login(username, password string) (*util.TokenPair, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"username": username,
	})

	ok, err := util.CheckAdminCredentials(s.admin.Username, s.admin.PasswordHash, username, password)
	if err != nil {
		logger.Error("Admin credentials are not configured", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		logger.Warn("Login failed: invalid credentials", map[string]interface{}{
			"username": username,
		})
		return nil, ErrInvalidCredentials
	}

	tokens, err := util.GenerateTokenPair(username, RoleAdmin, s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"username": username,
		})
		return nil, err
	}

	logger.Info("Admin logged in", map[string]interface{}{
		"username": username,
	})
	return tokens, nil
}

// Refresh 사용한 refresh 토큰은 차단하고 새 쌍을 발급
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}
	revoked, err := s.IsRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return util.GenerateTokenPair(claims.Username, claims.Role, s.jwtSecret, s.accessExpiry, s.refreshExpiry)
}

func (s *authService) Logout(ctx context.Context, claims *util.Claims) error {
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	logger.Info("Admin logged out", map[string]interface{}{
		"username": claims.Username,
	})
	return nil
}

func (s *authService) IsRevoked(ctx context.Context, claims *util.Claims) (bool, error) {
	if claims == nil || claims.ID == "" {
		return false, nil
	}
	return s.tokens.IsRevoked(ctx, claims.ID)
}

// revoke 토큰 만료 시각까지만 차단 목록에 둔다
func (s *authService) revoke(ctx context.Context, claims *util.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.tokens.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
