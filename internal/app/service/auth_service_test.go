package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

func setupAuthServiceTest(t *testing.T) AuthService {
	hash, err := util.HashPasswordWithCost("s3cret", 4)
	require.NoError(t, err)

	return NewAuthService(
		config.AdminConfig{Username: "admin", PasswordHash: hash},
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
		nil,
	)
}

func TestAuthService_Login(t *testing.T) {
	authService := setupAuthServiceTest(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "admin", "s3cret", nil},
		{"wrong password", "admin", "nope", ErrInvalidCredentials},
		{"wrong username", "root", "s3cret", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := authService.Login(tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tokens)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(900), tokens.ExpiresIn)

			claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
			require.NoError(t, err)
			assert.Equal(t, "admin", claims.Username)
			assert.Equal(t, RoleAdmin, claims.Role)
			assert.Equal(t, util.TokenTypeAccess, claims.TokenType)
		})
	}
}

func TestAuthService_Login_NotConfigured(t *testing.T) {
	authService := NewAuthService(config.AdminConfig{Username: "admin"}, testJWTSecret, time.Minute, time.Hour, nil)

	_, err := authService.Login("admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	authService := setupAuthServiceTest(t)
	ctx := context.Background()

	tokens, err := authService.Login("admin", "s3cret")
	require.NoError(t, err)

	_, err = authService.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)

	next, err := authService.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, next.RefreshToken)

	_, err = authService.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_Logout(t *testing.T) {
	authService := setupAuthServiceTest(t)
	ctx := context.Background()

	tokens, err := authService.Login("admin", "s3cret")
	require.NoError(t, err)
	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)

	revoked, err := authService.IsRevoked(ctx, claims)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, authService.Logout(ctx, claims))

	revoked, err = authService.IsRevoked(ctx, claims)
	require.NoError(t, err)
	assert.True(t, revoked)
}
