package events

import (
	"context"
	"errors"

	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

// MultiPublisher 여러 Publisher 로 같은 이벤트를 보낸다
type MultiPublisher struct {
	publishers []Publisher
}

func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

func (m *MultiPublisher) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit 발행 실패를 경고 로그로만 남긴다
func Emit(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warn("Failed to publish pipeline event", map[string]interface{}{
			"type":    evt.Type,
			"subject": evt.Subject,
			"error":   err.Error(),
		})
	}
}
