package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
)

const defaultKeywordList = 200

type KeywordController struct {
	keywordService service.KeywordService
}

func NewKeywordController(keywordService service.KeywordService) *KeywordController {
	return &KeywordController{
		keywordService: keywordService,
	}
}

type FetchKeywordsRequest struct {
	Date string `json:"date"`
}

// FetchKeywords 트렌드 소스에서 키워드 수집 후 같은 날짜 중복 제거
// POST /api/v1/keywords/fetch
func (ctrl *KeywordController) FetchKeywords(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req FetchKeywordsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid keyword fetch request", map[string]interface{}{
				"error": err.Error(),
			})
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "VALIDATION_INVALID_INPUT",
				"message": "Invalid request data",
			})
			return
		}
	}
	if req.Date == "" {
		req.Date = c.Query("date")
	}

	result, err := ctrl.keywordService.Fetch(c.Request.Context(), req.Date)
	if err != nil {
		respondServiceError(c, log, err, "keyword fetch")
		return
	}

	log.Info("Keywords fetched", map[string]interface{}{
		"date":    result.Date,
		"source":  result.Source,
		"fetched": result.Fetched,
		"deduped": result.Removed,
	})

	c.JSON(http.StatusOK, result)
}

// ListKeywords 최근 키워드 (선택적으로 ?date=)
// GET /api/v1/keywords
func (ctrl *KeywordController) ListKeywords(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	keywords, err := ctrl.keywordService.List(c.Query("date"), queryInt(c, "limit", defaultKeywordList))
	if err != nil {
		respondServiceError(c, log, err, "keyword list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keywords": keywords,
		"count":    len(keywords),
	})
}
