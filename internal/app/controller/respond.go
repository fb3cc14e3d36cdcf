package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/coupang-partners-backend/internal/errors"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

// respondServiceError 서비스 에러를 분류(kind)별 HTTP 상태와 코드로 응답
func respondServiceError(c *gin.Context, log *logger.Logger, err error, context string) {
	kind := service.ErrorKind(err)
	status, code := statusForError(kind, err)
	details := errorDetails(err)

	fields := map[string]interface{}{
		"kind":   string(kind),
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		log.Error("Request failed: "+context, err, fields)
	} else {
		fields["error"] = err.Error()
		log.Warn("Request rejected: "+context, fields)
	}

	message := err.Error()
	if kind == service.KindInternal {
		info := apperrors.ParseError(err, context)
		code, message = info.Code, info.Message
		if info.Code == apperrors.KeywordNotFound || info.Code == apperrors.ProductNotFound ||
			info.Code == apperrors.PostNotFound || info.Code == apperrors.ResourceNotFound {
			status = http.StatusNotFound
		}
	}

	apperrors.RespondWithKind(c, status, code, string(kind), message, details)
}

func statusForError(kind service.Kind, err error) (int, string) {
	switch kind {
	case service.KindBudgetExceeded:
		return http.StatusPaymentRequired, apperrors.BudgetExceeded
	case service.KindValidation:
		return validationStatus(err)
	case service.KindNotFound:
		return http.StatusNotFound, notFoundCode(err)
	case service.KindPublishFailed:
		if errors.Is(err, service.ErrBlogNotConnected) {
			return http.StatusConflict, apperrors.BlogNotConnected
		}
		return http.StatusBadGateway, apperrors.PostPublishFailed
	case service.KindProviderTransient:
		return http.StatusServiceUnavailable, apperrors.AIProviderTransient
	case service.KindProviderPermanent:
		if errors.Is(err, service.ErrUnparseableResponse) || errors.Is(err, service.ErrEmptyGeneration) {
			return http.StatusBadGateway, apperrors.AIInvalidResponse
		}
		return http.StatusBadGateway, apperrors.AIProviderPermanent
	}
	return http.StatusInternalServerError, apperrors.InternalServerError
}

func validationStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, apperrors.PostInvalidTransition
	case errors.Is(err, service.ErrMappingRequired):
		return http.StatusUnprocessableEntity, apperrors.ProductMappingRequired
	case errors.Is(err, service.ErrCompareMinimum):
		return http.StatusBadRequest, apperrors.PostCompareMinimum
	case errors.Is(err, service.ErrInvalidTemplate):
		return http.StatusBadRequest, apperrors.PostInvalidTemplate
	case errors.Is(err, service.ErrInvalidSchedule):
		return http.StatusBadRequest, apperrors.PostInvalidSchedule
	case errors.Is(err, service.ErrScheduleInPast):
		return http.StatusBadRequest, apperrors.PostScheduleInPast
	case errors.Is(err, service.ErrEmptyAffiliateURL):
		return http.StatusBadRequest, apperrors.ProductEmptyAffiliate
	case errors.Is(err, service.ErrInvalidDate):
		return http.StatusBadRequest, apperrors.KeywordInvalidDate
	case errors.Is(err, service.ErrInvalidAIConfig):
		return http.StatusBadRequest, apperrors.AIInvalidConfig
	}
	return http.StatusBadRequest, apperrors.ValidationInvalidInput
}

func notFoundCode(err error) string {
	switch {
	case errors.Is(err, service.ErrKeywordNotFound):
		return apperrors.KeywordNotFound
	case errors.Is(err, service.ErrProductNotFound):
		return apperrors.ProductNotFound
	case errors.Is(err, service.ErrPostNotFound):
		return apperrors.PostNotFound
	case errors.Is(err, service.ErrArchiveMissing), errors.Is(err, service.ErrArchiveDisabled):
		return apperrors.PostArchiveMissing
	}
	return apperrors.ResourceNotFound
}

// errorDetails 예산 잔액, 문제 상품 ID, 공급자 사유 등
func errorDetails(err error) map[string]interface{} {
	var budgetErr *service.BudgetExceededError
	if errors.As(err, &budgetErr) {
		return map[string]interface{}{
			"scope":     budgetErr.Scope,
			"date":      budgetErr.Date,
			"cap":       budgetErr.Cap,
			"spent":     budgetErr.Spent,
			"reserved":  budgetErr.Reserved,
			"remaining": budgetErr.Remaining,
			"requested": budgetErr.Requested,
		}
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		details := map[string]interface{}{}
		if validationErr.Field != "" {
			details["field"] = validationErr.Field
		}
		if validationErr.ProductID != 0 {
			details["product_id"] = validationErr.ProductID
		}
		if validationErr.Reason != "" {
			details["reason"] = validationErr.Reason
		}
		if len(details) == 0 {
			return nil
		}
		return details
	}

	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		return map[string]interface{}{
			"provider": providerErr.Provider,
			"reason":   providerErr.Reason,
		}
	}

	var publishErr *service.PublishFailureError
	if errors.As(err, &publishErr) {
		return map[string]interface{}{"post_id": publishErr.PostID}
	}
	return nil
}

// parseID 경로 파라미터 ID 파싱 (실패 시 400 응답 후 false)
func parseID(c *gin.Context, log *logger.Logger, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		log.Warn("Invalid ID format", map[string]interface{}{
			name:    raw,
			"error": "not a positive integer",
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 ID 입니다")
		return 0, false
	}
	return uint(id), true
}

// queryInt 정수 쿼리 파라미터 (없거나 잘못되면 기본값)
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
