package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrUnknownProvider 레지스트리에 없는 공급자
	ErrUnknownProvider = errors.New("unknown ai provider")

	// ErrNotConfigured API 키 미설정
	ErrNotConfigured = errors.New("ai provider api key not configured")
)

// ErrorClass 공급자 실패 분류
type ErrorClass string

const (
	ClassTransient ErrorClass = "transient"
	ClassPermanent ErrorClass = "permanent"
)

// 공급자 실패 사유
const (
	ReasonTimeout        = "timeout"
	ReasonRateLimited    = "rate_limited"
	ReasonServerError    = "server_error"
	ReasonNetwork        = "network_error"
	ReasonUnauthorized   = "invalid_credential"
	ReasonBadRequest     = "malformed_request"
	ReasonPolicyBlock    = "policy_block"
	ReasonNotConfigured  = "not_configured"
	ReasonEmptyResponse  = "empty_response"
	ReasonDecodeResponse = "decode_error"
)

// ProviderError 분류된 공급자 에러
type ProviderError struct {
	Provider   string
	Class      ErrorClass
	StatusCode int
	Reason     string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s error: %s", e.Provider, e.Class, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Transient() bool {
	return e.Class == ClassTransient
}

// IsTransient 재시도 가능한 에러 여부
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// classifyStatus HTTP 상태 코드로 분류
// 408/429/5xx 는 transient, 나머지 4xx 는 permanent
func classifyStatus(provider string, status int, message string) *ProviderError {
	pe := &ProviderError{Provider: provider, StatusCode: status, Message: message}
	switch {
	case status == http.StatusTooManyRequests:
		pe.Class, pe.Reason = ClassTransient, ReasonRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		pe.Class, pe.Reason = ClassTransient, ReasonTimeout
	case status >= 500:
		pe.Class, pe.Reason = ClassTransient, ReasonServerError
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		pe.Class, pe.Reason = ClassPermanent, ReasonUnauthorized
	default:
		pe.Class, pe.Reason = ClassPermanent, ReasonBadRequest
	}
	return pe
}

// classifyTransport http.Client.Do 실패 분류
func classifyTransport(provider string, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, Class: ClassTransient, Reason: ReasonNetwork, Message: err.Error(), Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		pe.Reason = ReasonTimeout
	}
	if errors.Is(err, context.Canceled) {
		pe.Class = ClassPermanent
	}
	return pe
}

func notConfigured(provider string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Class:    ClassPermanent,
		Reason:   ReasonNotConfigured,
		Message:  "api key is empty",
		Err:      ErrNotConfigured,
	}
}
