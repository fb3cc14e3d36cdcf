package events

import (
	"context"
	"time"
)

// 파이프라인 이벤트 유형
const (
	KeywordIngested    = "keyword.ingested"
	KeywordDeduped     = "keyword.deduped"
	ProductRecommended = "product.recommended"
	AffiliateMapped    = "affiliate.mapped"
	PostDrafted        = "post.drafted"
	PostScheduled      = "post.scheduled"
	PostPublished      = "post.published"
	PostPublishFailed  = "post.publish_failed"
	BudgetRejected     = "budget.rejected"
)

// Event 파이프라인 상태 변화 알림
type Event struct {
	Type    string                 `json:"type"`
	Subject string                 `json:"subject,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	At      time.Time              `json:"at"`
}

// New 현재 시각으로 이벤트 생성
func New(eventType, subject string, data map[string]interface{}) Event {
	return Event{Type: eventType, Subject: subject, Data: data, At: time.Now().UTC()}
}

// Publisher 이벤트 전달 (실패해도 파이프라인 동작은 계속된다)
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher 아무것도 하지 않는 Publisher
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }
