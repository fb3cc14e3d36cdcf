package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeResponse struct {
	text   string
	tokens int64
	err    error

	// hang ctx 가 끝날 때까지 응답하지 않는다
	hang bool
}

// fakeProvider 순서대로 응답을 돌려주고 마지막 응답은 반복
type fakeProvider struct {
	mu        sync.Mutex
	name      string
	hasKey    bool
	responses []fakeResponse
	calls     []llm.Request
}

func newFakeProvider(responses ...fakeResponse) *fakeProvider {
	return &fakeProvider{name: llm.ProviderOpenAI, hasKey: true, responses: responses}
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) HasAPIKey() bool { return p.hasKey }

func (p *fakeProvider) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	if len(p.responses) == 0 {
		p.mu.Unlock()
		return &llm.Result{Text: "ok", TotalTokens: 1, Model: req.Model, Provider: p.name}, nil
	}
	resp := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	p.mu.Unlock()

	if resp.hang {
		<-ctx.Done()
		return nil, &llm.ProviderError{Provider: p.name, Class: llm.ClassTransient, Reason: llm.ReasonTimeout, Err: ctx.Err()}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &llm.Result{Text: resp.text, TotalTokens: resp.tokens, Model: req.Model, Provider: p.name}, nil
}

func (p *fakeProvider) Calls() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.calls...)
}

// recordingPublisher 발행된 이벤트를 기록
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		DefaultProvider:   llm.ProviderOpenAI,
		OpenAIModelSmall:  "gpt-4o-mini",
		OpenAIModelWriter: "gpt-4o-mini",
		GeminiModelSmall:  "gemini-1.5-flash",
		GeminiModelWriter: "gemini-1.5-pro",
		GeminiSafety:      "low",
		SmallMaxTokens:    1200,
		WriterMaxTokens:   2000,
	}
}

func fastRetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Retryable:   llm.IsTransient,
	}
}

// aiStack 테스트용 예산/AI 설정/AI 서비스 묶음
type aiStack struct {
	budget   *budgetService
	aiConfig AIConfigService
	ai       AIService
}

// newAIStack 단가 gpt-4o-mini 0.25/1K, 일 한도 dailyCap
func newAIStack(t *testing.T, testDB *gorm.DB, provider llm.Provider, dailyCap float64, publisher events.Publisher) *aiStack {
	t.Helper()

	budget := NewBudgetService(
		repository.NewBudgetRepository(testDB),
		testDB,
		config.BudgetConfig{
			DailyCapUSD:     dailyCap,
			ModelPricePer1K: map[string]float64{"gpt-4o-mini": 0.25},
		},
		time.UTC,
		publisher,
		nil,
	).(*budgetService)
	budget.now = func() time.Time { return budgetTestNow }

	aiConfig := NewAIConfigService(
		repository.NewAppConfigRepository(testDB),
		llm.NewRegistry(provider),
		testAIConfig(),
	)
	require.NoError(t, aiConfig.Load())

	return &aiStack{
		budget:   budget,
		aiConfig: aiConfig,
		ai:       NewAIService(aiConfig, budget, fastRetryPolicy(), time.Second, nil),
	}
}
