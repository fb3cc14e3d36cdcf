package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	apperrors "github.com/ikkim/coupang-partners-backend/internal/errors"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// Recommend 키워드에 대한 상품 후보 추천 (AI 소형 모델, 예산 예약)
// POST /api/v1/products/recommend/:keyword_id
func (ctrl *ProductController) Recommend(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	keywordID, ok := parseID(c, log, "keyword_id")
	if !ok {
		return
	}

	products, err := ctrl.productService.Recommend(c.Request.Context(), keywordID)
	if err != nil {
		respondServiceError(c, log, err, "product recommend")
		return
	}

	log.Info("Products recommended", map[string]interface{}{
		"keyword_id": keywordID,
		"count":      len(products),
	})

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// ListProducts 상태별 상품 후보 목록
// GET /api/v1/products?status=candidate|mapped&keyword_id=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.ProductListOptions{Limit: queryInt(c, "limit", 0)}
	if raw := c.Query("status"); raw != "" {
		status := model.ProductStatus(raw)
		if status != model.ProductStatusCandidate && status != model.ProductStatusMapped {
			log.Warn("Invalid product status filter", map[string]interface{}{
				"status": raw,
			})
			apperrors.BadRequest(c, apperrors.ProductInvalidStatus, "status 는 candidate 또는 mapped 입니다")
			return
		}
		opts.Status = &status
	}
	if c.Query("keyword_id") != "" {
		id := uint(queryInt(c, "keyword_id", 0))
		opts.KeywordID = &id
	}

	products, err := ctrl.productService.ListProducts(opts)
	if err != nil {
		respondServiceError(c, log, err, "product list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		respondServiceError(c, log, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}
