package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	apperrors "github.com/ikkim/coupang-partners-backend/internal/errors"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
)

type PostController struct {
	draftService   service.DraftService
	publishService service.PublishService
}

func NewPostController(draftService service.DraftService, publishService service.PublishService) *PostController {
	return &PostController{
		draftService:   draftService,
		publishService: publishService,
	}
}

type DraftRequest struct {
	ProductID     uint                   `json:"product_id" binding:"required"`
	TemplateType  string                 `json:"template_type"`
	TemplateInput map[string]interface{} `json:"template_input"`
}

type CompareDraftRequest struct {
	ProductIDs    []uint                 `json:"product_ids" binding:"required"`
	TemplateInput map[string]interface{} `json:"template_input"`
}

type PublishRequest struct {
	PostID   uint   `json:"post_id" binding:"required"`
	Schedule string `json:"schedule"`
}

// Draft 단일 상품 초안 생성
// POST /api/v1/posts/draft
func (ctrl *PostController) Draft(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid draft request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, map[string]string{
			"product_id": "required",
		})
		return
	}

	post, err := ctrl.draftService.Draft(c.Request.Context(), service.DraftRequest{
		ProductID:     req.ProductID,
		TemplateType:  model.TemplateType(req.TemplateType),
		TemplateInput: req.TemplateInput,
	})
	if err != nil {
		respondServiceError(c, log, err, "post draft")
		return
	}

	log.Info("Draft created", map[string]interface{}{
		"post_id":       post.ID,
		"product_id":    req.ProductID,
		"template_type": post.TemplateType,
	})

	c.JSON(http.StatusCreated, gin.H{
		"post": post,
	})
}

// DraftCompare 여러 상품 비교 초안 (항상 템플릿 B)
// POST /api/v1/posts/draft/compare
func (ctrl *PostController) DraftCompare(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CompareDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid compare draft request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, map[string]string{
			"product_ids": "required",
		})
		return
	}

	post, err := ctrl.draftService.DraftCompare(c.Request.Context(), service.CompareDraftRequest{
		ProductIDs:    req.ProductIDs,
		TemplateInput: req.TemplateInput,
	})
	if err != nil {
		respondServiceError(c, log, err, "post draft compare")
		return
	}

	log.Info("Compare draft created", map[string]interface{}{
		"post_id":     post.ID,
		"product_ids": post.ProductIDs,
	})

	c.JSON(http.StatusCreated, gin.H{
		"post": post,
	})
}

// Publish 즉시 발행하거나 schedule 이 있으면 예약
// POST /api/v1/posts/publish
func (ctrl *PostController) Publish(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid publish request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, map[string]string{
			"post_id": "required",
		})
		return
	}

	post, err := ctrl.publishService.Publish(c.Request.Context(), service.PublishRequest{
		PostID:   req.PostID,
		Schedule: req.Schedule,
	})
	if err != nil {
		respondServiceError(c, log, err, "post publish")
		return
	}

	log.Info("Post publish handled", map[string]interface{}{
		"post_id": post.ID,
		"status":  post.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"post": post,
	})
}

// ListPosts
// GET /api/v1/posts?status=&limit=&offset=
func (ctrl *PostController) ListPosts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.PostListOptions{
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := model.PostStatus(raw)
		switch status {
		case model.PostStatusDraft, model.PostStatusScheduled, model.PostStatusPublished:
			opts.Status = &status
		default:
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "status 는 draft, scheduled, published 중 하나입니다")
			return
		}
	}

	posts, err := ctrl.publishService.ListPosts(opts)
	if err != nil {
		respondServiceError(c, log, err, "post list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}

// GetPost
// GET /api/v1/posts/:id
func (ctrl *PostController) GetPost(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	post, err := ctrl.publishService.GetPost(id)
	if err != nil {
		respondServiceError(c, log, err, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post": post,
	})
}

// ArchiveURL 발행본 보관 파일의 presigned URL
// GET /api/v1/posts/:id/archive
func (ctrl *PostController) ArchiveURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	url, err := ctrl.publishService.ArchiveURL(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, log, err, "post archive")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post_id": id,
		"url":     url,
	})
}
