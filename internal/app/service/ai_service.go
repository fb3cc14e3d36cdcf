package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

// GenerateRequest 예산을 거쳐 실행되는 생성 요청
type GenerateRequest struct {
	Purpose     string
	Size        llm.Size
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	JSON        bool

	// EstimatedTokens 0 이면 프롬프트 길이와 MaxTokens 로 추정
	EstimatedTokens int64
}

// Generation 생성 결과와 정산 정보
type Generation struct {
	Text          string
	Provider      string
	Model         string
	TokensUsed    int64
	CostUSD       float64
	ReservationID string
}

// AIDiagnostics 예산을 거치지 않는 연결 점검 결과
type AIDiagnostics struct {
	Provider    string `json:"provider"`
	ModelSmall  string `json:"model_small"`
	ModelWriter string `json:"model_writer"`
	HasAPIKey   bool   `json:"has_api_key"`
	OK          bool   `json:"ok"`
	TotalTokens int64  `json:"total_tokens,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// AIService 예약 → 공급자 호출(재시도) → 확정/해제 순서로 생성 호출을 감싼다
type AIService interface {
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)
	Ping(ctx context.Context) *AIDiagnostics
}

type aiService struct {
	aiConfig AIConfigService
	budget   BudgetService
	retry    llm.RetryPolicy
	timeout  time.Duration
	metrics  *metrics.PipelineMetrics
}

func NewAIService(
	aiConfig AIConfigService,
	budget BudgetService,
	retry llm.RetryPolicy,
	timeout time.Duration,
	m *metrics.PipelineMetrics,
) AIService {
	return &aiService{
		aiConfig: aiConfig,
		budget:   budget,
		retry:    retry,
		timeout:  timeout,
		metrics:  m,
	}
}

// estimateTokens 한글 기준 대략 2자당 1토큰 + 출력 상한
func estimateTokens(req GenerateRequest) int64 {
	if req.EstimatedTokens > 0 {
		return req.EstimatedTokens
	}
	input := int64(len([]rune(req.System))+len([]rune(req.Prompt))) / 2
	output := int64(req.MaxTokens)
	if output <= 0 {
		output = 1000
	}
	return input + output
}

func (s *aiService) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	provider, settings, err := s.aiConfig.Active()
	if err != nil {
		return nil, err
	}
	modelName := settings.Models().For(req.Size)

	reservation, err := s.budget.Reserve(ctx, ReserveRequest{
		Purpose:         req.Purpose,
		Model:           modelName,
		EstimatedTokens: estimateTokens(req),
	})
	if err != nil {
		return nil, err
	}

	// 정산은 요청이 취소되어도 끝까지 수행
	settleCtx := context.WithoutCancel(ctx)

	policy := s.retry
	policy.AttemptTimeout = s.timeout
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.metrics.RecordRetry(provider.Name())
		logger.Warn("Retrying AI provider call", map[string]interface{}{
			"provider": provider.Name(),
			"purpose":  req.Purpose,
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
	}

	started := time.Now()
	result, err := llm.GenerateWithRetry(ctx, provider, llm.Request{
		Model:       modelName,
		System:      req.System,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		JSON:        req.JSON,
		Safety:      settings.Safety(),
	}, policy)
	elapsed := time.Since(started)

	if err != nil {
		s.metrics.RecordProviderCall(provider.Name(), string(req.Size), outcomeOf(err), elapsed)
		if relErr := s.budget.Release(settleCtx, reservation.ID); relErr != nil {
			logger.Error("Failed to release reservation after provider failure", relErr, map[string]interface{}{
				"reservation_id": reservation.ID,
			})
		}
		logger.Error("AI generation failed", err, map[string]interface{}{
			"provider": provider.Name(),
			"model":    modelName,
			"purpose":  req.Purpose,
			"kind":     ErrorKind(err),
		})
		return nil, err
	}

	s.metrics.RecordProviderCall(provider.Name(), string(req.Size), "ok", elapsed)
	s.metrics.RecordTokens(provider.Name(), modelName, result.TotalTokens)

	cost := s.budget.Cost(modelName, result.TotalTokens)
	if err := s.budget.Commit(settleCtx, reservation.ID, result.TotalTokens, cost); err != nil {
		logger.Error("Failed to commit AI spend", err, map[string]interface{}{
			"reservation_id": reservation.ID,
			"tokens":         result.TotalTokens,
		})
		return nil, err
	}

	// 빈 응답도 토큰은 소비되었으므로 확정 후 실패로 돌려준다
	if strings.TrimSpace(result.Text) == "" {
		logger.Warn("AI provider returned empty text", map[string]interface{}{
			"provider": provider.Name(),
			"model":    modelName,
			"purpose":  req.Purpose,
		})
		return nil, ErrEmptyGeneration
	}

	logger.Info("AI generation completed", map[string]interface{}{
		"provider":   provider.Name(),
		"model":      modelName,
		"purpose":    req.Purpose,
		"tokens":     result.TotalTokens,
		"cost_usd":   cost,
		"elapsed_ms": elapsed.Milliseconds(),
	})

	return &Generation{
		Text:          result.Text,
		Provider:      provider.Name(),
		Model:         modelName,
		TokensUsed:    result.TotalTokens,
		CostUSD:       cost,
		ReservationID: reservation.ID,
	}, nil
}

func outcomeOf(err error) string {
	switch ErrorKind(err) {
	case KindProviderTransient:
		return "transient"
	case KindProviderPermanent:
		return "permanent"
	default:
		return "error"
	}
}

// Ping 2토큰 요청으로 공급자 연결 확인 (원장에 기록하지 않는다)
func (s *aiService) Ping(ctx context.Context) *AIDiagnostics {
	settings := s.aiConfig.Get()
	models := settings.Models()
	diag := &AIDiagnostics{
		Provider:    settings.Provider,
		ModelSmall:  models.Small,
		ModelWriter: models.Writer,
	}

	provider, _, err := s.aiConfig.Active()
	if err != nil {
		diag.Reason = "config_error"
		return diag
	}
	diag.HasAPIKey = provider.HasAPIKey()
	if !diag.HasAPIKey {
		diag.Reason = llm.ReasonNotConfigured
		return diag
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := provider.Generate(ctx, llm.Request{
		Model:     models.Small,
		Prompt:    "ping",
		MaxTokens: 2,
		Safety:    settings.Safety(),
	})
	if err != nil {
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			diag.Reason = pe.Reason
		} else {
			diag.Reason = err.Error()
		}
		return diag
	}

	diag.OK = true
	diag.TotalTokens = result.TotalTokens
	return diag
}
