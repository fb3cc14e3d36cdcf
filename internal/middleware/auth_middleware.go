package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/errors"
	"github.com/ikkim/coupang-partners-backend/pkg/util"
)

// Context keys for admin information
const (
	UsernameKey = "username"
	UserRoleKey = "user_role"
	ClaimsKey   = "claims"
)

// RevocationChecker 로그아웃된 토큰 확인 (service.AuthService)
type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *util.Claims) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	revoked   RevocationChecker
}

// NewAuthMiddleware revoked 가 nil 이면 차단 목록을 확인하지 않음
func NewAuthMiddleware(jwtSecret string, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		revoked:   revoked,
	}
}

// Authenticate validates the access token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "인증 형식이 올바르지 않습니다")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			// WebSocket 은 헤더를 못 보내므로 쿼리 파라미터 허용
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "로그인이 필요합니다")
				c.Abort()
				return
			}
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "로그인이 만료되었습니다")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "유효하지 않은 인증 토큰입니다")
			}
			c.Abort()
			return
		}

		if claims.TokenType != util.TokenTypeAccess {
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "access 토큰이 아닙니다")
			c.Abort()
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(c.Request.Context(), claims)
			if err != nil {
				log.Error("Failed to check token revocation", err)
				errors.InternalError(c, "")
				c.Abort()
				return
			}
			if revoked {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "로그아웃된 토큰입니다")
				c.Abort()
				return
			}
		}

		c.Set(UsernameKey, claims.Username)
		c.Set(UserRoleKey, claims.Role)
		c.Set(ClaimsKey, claims)

		log.Debug("Admin authenticated", map[string]interface{}{
			"username": claims.Username,
			"role":     claims.Role,
		})

		c.Next()
	}
}

// RequireRole checks if the caller has one of the roles
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzRoleNotFound, "권한 정보를 찾을 수 없습니다")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		username, _ := GetUsername(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"username":       username,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, "관리자만 사용할 수 있습니다")
		c.Abort()
	}
}

// RequireConfirm 파괴적 작업은 ?confirm=true 필요
func RequireConfirm() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("confirm") != "true" {
			GetLoggerFromContext(c).Warn("Destructive request without confirmation", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.BadRequest(c, errors.ValidationConfirmRequired, "되돌릴 수 없는 작업입니다. confirm=true 를 함께 보내주세요")
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(UsernameKey)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func GetUserRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func GetClaims(c *gin.Context) (*util.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*util.Claims)
	return claims, ok
}
