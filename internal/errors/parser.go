package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError 저장소 계층 에러를 코드와 메시지로 변환
// context 는 "keyword", "product", "post" 처럼 대상 리소스를 나타낸다
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "서버 오류가 발생했습니다"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: notFoundCode(context), Message: getNotFoundMessage(context)}
	}

	errLower := strings.ToLower(err.Error())

	// postgres: duplicate key / sqlite: UNIQUE constraint failed
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 존재하는 데이터입니다"}
	}

	if strings.Contains(errLower, "foreign key constraint") {
		if strings.Contains(errLower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "연결된 데이터가 있어 삭제할 수 없습니다"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "참조하는 데이터를 찾을 수 없습니다"}
	}

	if strings.Contains(errLower, "not null constraint") || strings.Contains(errLower, "violates not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "필수 항목이 누락되었습니다"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func notFoundCode(context string) string {
	switch {
	case strings.Contains(context, "keyword"):
		return KeywordNotFound
	case strings.Contains(context, "product"):
		return ProductNotFound
	case strings.Contains(context, "post"):
		return PostNotFound
	default:
		return ResourceNotFound
	}
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	switch {
	case strings.Contains(context, "keyword"):
		return "키워드를 찾을 수 없습니다"
	case strings.Contains(context, "product"):
		return "상품 후보를 찾을 수 없습니다"
	case strings.Contains(context, "post"):
		return "게시글을 찾을 수 없습니다"
	default:
		return "요청한 데이터를 찾을 수 없습니다"
	}
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") || strings.Contains(contextLower, "생성") {
		return "등록 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "수정") {
		return "수정 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "delete") || strings.Contains(contextLower, "삭제") {
		return "삭제 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}
