package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"gorm.io/gorm"
)

var (
	ErrKeywordNotFound     = errors.New("keyword not found")
	ErrProductNotFound     = errors.New("product candidate not found")
	ErrPostNotFound        = errors.New("post not found")
	ErrMappingRequired     = errors.New("mapping required")
	ErrCompareMinimum      = errors.New("at least two selections required")
	ErrInvalidTemplate     = errors.New("invalid template input")
	ErrInvalidSchedule     = errors.New("invalid schedule")
	ErrInvalidDate         = errors.New("invalid date")
	ErrScheduleInPast      = errors.New("schedule is in the past")
	ErrEmptyAffiliateURL   = errors.New("affiliate url is required")
	ErrInvalidTransition   = errors.New("invalid post status transition")
	ErrReservationNotFound = errors.New("budget reservation not found")
	ErrInvalidAIConfig     = errors.New("invalid ai config")
	ErrBlogNotConnected    = errors.New("blog is not connected")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrEmptyGeneration     = errors.New("provider returned empty text")
	ErrUnparseableResponse = errors.New("could not parse provider response")
	ErrArchiveDisabled     = errors.New("post archive is disabled")
	ErrArchiveMissing      = errors.New("post has no archive")
)

// Kind 호출자에게 돌려주는 에러 분류
type Kind string

const (
	KindBudgetExceeded    Kind = "budget_exceeded"
	KindValidation        Kind = "validation"
	KindProviderTransient Kind = "provider_transient"
	KindProviderPermanent Kind = "provider_permanent"
	KindPublishFailed     Kind = "publish_failed"
	KindNotFound          Kind = "not_found"
	KindInternal          Kind = "internal"
)

// BudgetExceededError 예약이 일/월 한도를 넘을 때 (재시도하지 않는다)
type BudgetExceededError struct {
	Scope     string // daily, monthly
	Date      string
	Cap       float64
	Spent     float64
	Reserved  float64
	Remaining float64
	Requested float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s budget exceeded for %s: requested %.4f, remaining %.4f of cap %.4f",
		e.Scope, e.Date, e.Requested, e.Remaining, e.Cap)
}

// ValidationError 입력 검증 실패 (부수 효과 없음)
type ValidationError struct {
	Field     string
	Reason    string
	ProductID uint
	Err       error
}

func (e *ValidationError) Error() string {
	if e.ProductID != 0 {
		return fmt.Sprintf("%s: product %d", e.Err, e.ProductID)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Reason)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(err error, field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

// PublishFailureError 외부 블로그 발행 실패 (글 상태는 그대로)
type PublishFailureError struct {
	PostID uint
	Err    error
}

func (e *PublishFailureError) Error() string {
	return fmt.Sprintf("publish post %d: %v", e.PostID, e.Err)
}

func (e *PublishFailureError) Unwrap() error {
	return e.Err
}

// ErrorKind 서비스 에러를 응답용 분류로 변환
func ErrorKind(err error) Kind {
	if err == nil {
		return ""
	}

	var budgetErr *BudgetExceededError
	if errors.As(err, &budgetErr) {
		return KindBudgetExceeded
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	var publishErr *PublishFailureError
	if errors.As(err, &publishErr) {
		return KindPublishFailed
	}
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		if providerErr.Transient() {
			return KindProviderTransient
		}
		return KindProviderPermanent
	}

	switch {
	case errors.Is(err, ErrKeywordNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrPostNotFound),
		errors.Is(err, ErrArchiveMissing),
		errors.Is(err, ErrArchiveDisabled),
		errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, ErrMappingRequired),
		errors.Is(err, ErrCompareMinimum),
		errors.Is(err, ErrInvalidTemplate),
		errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrScheduleInPast),
		errors.Is(err, ErrEmptyAffiliateURL),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidAIConfig):
		return KindValidation
	case errors.Is(err, ErrBlogNotConnected):
		return KindPublishFailed
	case errors.Is(err, ErrEmptyGeneration),
		errors.Is(err, ErrUnparseableResponse):
		return KindProviderPermanent
	}
	return KindInternal
}
