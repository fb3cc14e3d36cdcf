package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 표준 에러 응답 구조
type ErrorResponse struct {
	Error   string                 `json:"error"`             // 에러 코드 (대시보드 매핑용)
	Message string                 `json:"message"`           // 사람이 읽는 사유
	Kind    string                 `json:"kind,omitempty"`    // budget_exceeded, validation, provider_transient ...
	Details map[string]interface{} `json:"details,omitempty"` // 남은 예산, 문제 상품 ID 등
}

// RespondWithError 에러 응답 헬퍼
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RespondWithKind 분류(kind)와 상세 정보를 포함한 에러 응답
func RespondWithKind(c *gin.Context, statusCode int, errorCode, kind, message string, details map[string]interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
		Kind:    kind,
		Details: details,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "로그인이 필요합니다"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError 바인딩 검증 에러 (필드별 메시지)
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Kind    string            `json:"kind"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "입력값이 올바르지 않습니다",
		Kind:    "validation",
		Fields:  fields,
	})
}
