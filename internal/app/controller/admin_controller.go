package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	apperrors "github.com/ikkim/coupang-partners-backend/internal/errors"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
)

type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

// GetAIConfig
// GET /api/v1/admin/ai-config
func (ctrl *AdminController) GetAIConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.adminService.GetAIConfig())
}

// UpdateAIConfig 보낸 필드만 바꾼다
// POST /api/v1/admin/ai-config
func (ctrl *AdminController) UpdateAIConfig(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.AISettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid ai config request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.AIInvalidConfig, "잘못된 AI 설정 요청입니다")
		return
	}

	settings, err := ctrl.adminService.UpdateAIConfig(req)
	if err != nil {
		respondServiceError(c, log, err, "ai config update")
		return
	}

	log.Info("AI config updated", map[string]interface{}{
		"provider": settings.Provider,
	})
	c.JSON(http.StatusOK, settings)
}

// ResetDB 모든 테이블 삭제 후 재생성 (?confirm=true 필요)
// POST /api/v1/admin/reset-db
func (ctrl *AdminController) ResetDB(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.adminService.ResetDB(c.Request.Context()); err != nil {
		respondServiceError(c, log, err, "reset db")
		return
	}

	log.Warn("Database reset by operator")
	c.JSON(http.StatusOK, gin.H{
		"message": "database reset",
	})
}

// DeleteKeywords date 가 없으면 전체 삭제, 딸린 후보/글도 함께
// DELETE /api/v1/admin/keywords?date=
func (ctrl *AdminController) DeleteKeywords(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	date := c.Query("date")
	stats, err := ctrl.adminService.DeleteKeywords(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, log, err, "keyword delete")
		return
	}

	log.Info("Keywords deleted", map[string]interface{}{
		"date":       date,
		"keywords":   stats.Keywords,
		"candidates": stats.Candidates,
		"posts":      stats.Posts,
	})
	c.JSON(http.StatusOK, gin.H{
		"date":    date,
		"deleted": stats,
	})
}

// DedupKeywords
// POST /api/v1/admin/dedup-keywords?date=
func (ctrl *AdminController) DedupKeywords(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	date := c.Query("date")
	removed, err := ctrl.adminService.DedupKeywords(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, log, err, "keyword dedup")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":    date,
		"removed": removed,
	})
}

// StoreNaverToken 운영자가 발급받은 토큰 저장
// POST /api/v1/admin/naver-token
func (ctrl *AdminController) StoreNaverToken(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.NaverTokenInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithValidationError(c, map[string]string{
			"access_token": "required",
		})
		return
	}

	status, err := ctrl.adminService.StoreNaverToken(req)
	if err != nil {
		respondServiceError(c, log, err, "naver token")
		return
	}

	log.Info("Naver token stored", map[string]interface{}{
		"expires_at": status.ExpiresAt,
	})
	c.JSON(http.StatusOK, status)
}

// NaverStatus
// GET /api/v1/naver/status
func (ctrl *AdminController) NaverStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	status, err := ctrl.adminService.NaverStatus()
	if err != nil {
		respondServiceError(c, log, err, "naver status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// NaverLoginURL
// GET /api/v1/naver/login-url
func (ctrl *AdminController) NaverLoginURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	url, err := ctrl.adminService.NaverLoginURL()
	if err != nil {
		respondServiceError(c, log, err, "naver login url")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url": url,
	})
}
