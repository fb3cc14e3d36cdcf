package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostRoutes(fx *controllerFixture, drafts *fakeDraftService) {
	ctrl := NewPostController(drafts, fx.publishService())
	fx.router.POST("/posts/draft", ctrl.Draft)
	fx.router.POST("/posts/draft/compare", ctrl.DraftCompare)
	fx.router.POST("/posts/publish", ctrl.Publish)
	fx.router.GET("/posts", ctrl.ListPosts)
	fx.router.GET("/posts/:id", ctrl.GetPost)
	fx.router.GET("/posts/:id/archive", ctrl.ArchiveURL)
}

func TestPostController_Draft(t *testing.T) {
	fx := setupControllerTest(t)
	drafts := &fakeDraftService{post: &model.Post{ID: 1, TemplateType: model.TemplateReview, Status: model.PostStatusDraft}}
	setupPostRoutes(fx, drafts)

	w, resp := doJSON(t, fx.router, "POST", "/posts/draft", map[string]interface{}{
		"product_id":     3,
		"template_type":  "A",
		"template_input": map[string]interface{}{"pros": "조용함"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint(3), drafts.last.ProductID)
	assert.Equal(t, model.TemplateReview, drafts.last.TemplateType)
	assert.Equal(t, "조용함", drafts.last.TemplateInput["pros"])
	post := resp["post"].(map[string]interface{})
	assert.Equal(t, "draft", post["status"])

	w, resp = doJSON(t, fx.router, "POST", "/posts/draft", map[string]interface{}{"template_type": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_INVALID_INPUT", resp["error"])

	// 템플릿을 생략하면 서비스 기본값(A)에 맡긴다
	w, _ = doJSON(t, fx.router, "POST", "/posts/draft", map[string]interface{}{"product_id": 4})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint(4), drafts.last.ProductID)
	assert.Empty(t, drafts.last.TemplateType)
}

func TestPostController_DraftErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		check      func(t *testing.T, details map[string]interface{})
	}{
		{
			name:       "unmapped product",
			err:        &service.ValidationError{Err: service.ErrMappingRequired, Field: "product_id", ProductID: 3},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "PRODUCT_MAPPING_REQUIRED",
			check: func(t *testing.T, details map[string]interface{}) {
				assert.Equal(t, float64(3), details["product_id"])
			},
		},
		{
			name:       "budget exceeded",
			err:        &service.BudgetExceededError{Scope: "daily", Date: "2025-10-01", Cap: 1, Spent: 0.9, Remaining: 0.1, Requested: 0.3},
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "BUDGET_EXCEEDED",
			check: func(t *testing.T, details map[string]interface{}) {
				assert.InDelta(t, 0.1, details["remaining"], 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setupControllerTest(t)
			setupPostRoutes(fx, &fakeDraftService{err: tt.err})

			w, resp := doJSON(t, fx.router, "POST", "/posts/draft", map[string]interface{}{
				"product_id":    3,
				"template_type": "A",
			})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, resp["error"])
			tt.check(t, resp["details"].(map[string]interface{}))
		})
	}
}

func TestPostController_CompareMinimum(t *testing.T) {
	fx := setupControllerTest(t)
	setupPostRoutes(fx, &fakeDraftService{err: &service.ValidationError{Err: service.ErrCompareMinimum, Field: "product_ids"}})

	w, resp := doJSON(t, fx.router, "POST", "/posts/draft/compare", map[string]interface{}{"product_ids": []uint{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "POST_COMPARE_MINIMUM", resp["error"])
}

func TestPostController_PublishFlow(t *testing.T) {
	fx := setupControllerTest(t)
	setupPostRoutes(fx, &fakeDraftService{})

	post := &model.Post{TemplateType: model.TemplateReview, Status: model.PostStatusDraft, Title: "무선청소기 리뷰"}
	require.NoError(t, fx.db.Create(post).Error)

	w, resp := doJSON(t, fx.router, "POST", "/posts/publish", map[string]interface{}{
		"post_id":  post.ID,
		"schedule": "2099-01-01T09:00:00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	got := resp["post"].(map[string]interface{})
	assert.Equal(t, "scheduled", got["status"])
	assert.Equal(t, "2099-01-01T09:00:00Z", got["scheduled_at"])

	w, resp = doJSON(t, fx.router, "POST", "/posts/publish", map[string]interface{}{"post_id": post.ID})
	require.Equal(t, http.StatusOK, w.Code)
	got = resp["post"].(map[string]interface{})
	assert.Equal(t, "published", got["status"])
	assert.NotEmpty(t, got["published_at"])

	w, resp = doJSON(t, fx.router, "POST", "/posts/publish", map[string]interface{}{"post_id": post.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "POST_INVALID_TRANSITION", resp["error"])

	w, resp = doJSON(t, fx.router, "GET", "/posts?status=published", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["count"])

	w, _ = doJSON(t, fx.router, "GET", "/posts?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostController_PublishValidation(t *testing.T) {
	fx := setupControllerTest(t)
	setupPostRoutes(fx, &fakeDraftService{})

	post := &model.Post{TemplateType: model.TemplateReview, Status: model.PostStatusDraft}
	require.NoError(t, fx.db.Create(post).Error)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{"past schedule", map[string]interface{}{"post_id": post.ID, "schedule": "2000-01-01T00:00:00"}, http.StatusBadRequest, "POST_SCHEDULE_IN_PAST"},
		{"garbage schedule", map[string]interface{}{"post_id": post.ID, "schedule": "tomorrow"}, http.StatusBadRequest, "POST_INVALID_SCHEDULE"},
		{"missing post", map[string]interface{}{"post_id": 999}, http.StatusNotFound, "POST_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doJSON(t, fx.router, "POST", "/posts/publish", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, resp["error"])
		})
	}

	var reloaded model.Post
	require.NoError(t, fx.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, model.PostStatusDraft, reloaded.Status)
}

func TestPostController_GetAndArchive(t *testing.T) {
	fx := setupControllerTest(t)
	setupPostRoutes(fx, &fakeDraftService{})

	post := &model.Post{TemplateType: model.TemplateReview, Status: model.PostStatusDraft}
	require.NoError(t, fx.db.Create(post).Error)

	w, resp := doJSON(t, fx.router, "GET", "/posts/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, resp["post"])

	w, _ = doJSON(t, fx.router, "GET", "/posts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = doJSON(t, fx.router, "GET", "/posts/1/archive", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "POST_ARCHIVE_MISSING", resp["error"])
}
