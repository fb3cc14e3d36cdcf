package llm

import (
	"context"
	"time"

	"github.com/ikkim/coupang-partners-backend/pkg/util"
)

// RetryPolicy 재시도 정책 (최대 시도 횟수, 지수 백오프, 재시도 대상 판정)
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool

	// AttemptTimeout 시도 1회당 제한 시간 (0 이면 ctx 만 따른다)
	AttemptTimeout time.Duration

	// OnRetry 재시도 직전 호출 (로그/메트릭)
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy 3회, 500ms 부터 두 배씩
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Retryable:   IsTransient,
	}
}

// Backoff attempt(1부터) 번째 실패 후 대기 시간
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do fn 을 정책에 따라 실행
// 재시도 불가 에러, 시도 횟수 소진, ctx 종료 시 마지막 에러 반환
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			return err
		}

		delay := util.Jitter(p.Backoff(attempt), 0.1)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// GenerateWithRetry 정책에 따라 provider.Generate 호출
func GenerateWithRetry(ctx context.Context, p Provider, req Request, policy RetryPolicy) (*Result, error) {
	var res *Result
	err := policy.Do(ctx, func(ctx context.Context) error {
		if policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
			defer cancel()
		}
		r, err := p.Generate(ctx, req)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded && !IsTransient(err) {
				return &ProviderError{Provider: p.Name(), Class: ClassTransient, Reason: ReasonTimeout, Err: err}
			}
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
