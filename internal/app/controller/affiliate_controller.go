package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
)

const defaultPendingList = 100

type AffiliateController struct {
	affiliateService service.AffiliateService
}

func NewAffiliateController(affiliateService service.AffiliateService) *AffiliateController {
	return &AffiliateController{
		affiliateService: affiliateService,
	}
}

type MapAffiliateRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	URL       string `json:"url"`
	HTML      string `json:"html"`
}

// Map 운영자가 붙여넣은 제휴 링크를 후보에 연결 (candidate → mapped)
// POST /api/v1/affiliate/map
func (ctrl *AffiliateController) Map(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req MapAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid affiliate map request", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "VALIDATION_INVALID_INPUT",
			"message": "product_id 가 필요합니다",
		})
		return
	}

	mappedBy, ok := middleware.GetUsername(c)
	if !ok || mappedBy == "" {
		mappedBy = "operator"
	}

	product, err := ctrl.affiliateService.Map(c.Request.Context(), service.MapAffiliateInput{
		ProductID: req.ProductID,
		URL:       req.URL,
		HTML:      req.HTML,
		MappedBy:  mappedBy,
	})
	if err != nil {
		respondServiceError(c, log, err, "product affiliate map")
		return
	}

	log.Info("Affiliate link mapped", map[string]interface{}{
		"product_id": product.ID,
		"mapped_by":  mappedBy,
	})

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// Pending 아직 매핑되지 않은 후보
// GET /api/v1/affiliate/pending
func (ctrl *AffiliateController) Pending(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.affiliateService.Pending(queryInt(c, "limit", defaultPendingList))
	if err != nil {
		respondServiceError(c, log, err, "product pending")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}
