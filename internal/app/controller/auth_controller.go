package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	apperrors "github.com/ikkim/coupang-partners-backend/internal/errors"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
	"github.com/ikkim/coupang-partners-backend/pkg/util"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login 운영자 로그인
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, map[string]string{
			"username": "required",
			"password": "required",
		})
		return
	}

	tokens, err := ctrl.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "아이디 또는 비밀번호가 올바르지 않습니다")
			return
		}
		log.Error("Login failed", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// Refresh refresh 토큰 교체 발급
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithValidationError(c, map[string]string{
			"refresh_token": "required",
		})
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExpiredToken):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "토큰이 만료되었습니다")
		case errors.Is(err, util.ErrInvalidToken), errors.Is(err, service.ErrTokenRevoked):
			log.Warn("Refresh rejected", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "유효하지 않은 토큰입니다")
		default:
			log.Error("Token refresh failed", err)
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// Logout 현재 access 토큰 차단
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), claims); err != nil {
		log.Error("Logout failed", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "logged out",
	})
}

// Me
// GET /api/v1/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	username, _ := middleware.GetUsername(c)
	role, _ := middleware.GetUserRole(c)
	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"role":     role,
	})
}
