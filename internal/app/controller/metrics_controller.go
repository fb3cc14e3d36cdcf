package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
)

const defaultBudgetDays = 14

// MetricsController 대시보드용 읽기 전용 집계 (Prometheus /metrics 와 별개)
type MetricsController struct {
	statsService service.StatsService
	aiService    service.AIService
}

func NewMetricsController(statsService service.StatsService, aiService service.AIService) *MetricsController {
	return &MetricsController{
		statsService: statsService,
		aiService:    aiService,
	}
}

// PostMetrics
// GET /api/v1/metrics/posts
func (ctrl *MetricsController) PostMetrics(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	counts, err := ctrl.statsService.Posts()
	if err != nil {
		respondServiceError(c, log, err, "post metrics")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ProductMetrics
// GET /api/v1/metrics/products
func (ctrl *MetricsController) ProductMetrics(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	counts, err := ctrl.statsService.Products()
	if err != nil {
		respondServiceError(c, log, err, "product metrics")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// BudgetMetrics 최근 일별 원장과 이번 달 합계
// GET /api/v1/metrics/budget?days=
func (ctrl *MetricsController) BudgetMetrics(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	summary, err := ctrl.statsService.Budget(queryInt(c, "days", defaultBudgetDays))
	if err != nil {
		respondServiceError(c, log, err, "budget metrics")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AIDiagnostics 2 토큰 ping, 예산 원장은 건드리지 않는다
// GET /api/v1/diagnostics/ai
func (ctrl *MetricsController) AIDiagnostics(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	diag := ctrl.aiService.Ping(c.Request.Context())
	if !diag.OK {
		log.Warn("AI diagnostics failed", map[string]interface{}{
			"provider": diag.Provider,
			"reason":   diag.Reason,
		})
	}
	c.JSON(http.StatusOK, diag)
}
