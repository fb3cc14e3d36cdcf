package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics 파이프라인 단계별 카운터/히스토그램
// nil 이면 모든 Record* 호출을 무시한다
type PipelineMetrics struct {
	KeywordsIngestedTotal prometheus.CounterVec
	KeywordsDedupedTotal  prometheus.Counter
	CandidatesTotal       prometheus.Counter
	AffiliateMappedTotal  prometheus.Counter
	DraftsTotal           prometheus.CounterVec
	PostsPublishedTotal   prometheus.CounterVec

	// 예산
	BudgetReservationsTotal prometheus.CounterVec
	BudgetSpentUSDTotal     prometheus.Counter
	BudgetOverageUSDTotal   prometheus.Counter

	// AI 공급자
	ProviderCallsTotal   prometheus.CounterVec
	ProviderCallDuration prometheus.HistogramVec
	ProviderTokensTotal  prometheus.CounterVec
	ProviderRetriesTotal prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec
}

var (
	defaultMetrics *PipelineMetrics
	defaultOnce    sync.Once
)

// Default 기본 레지스트리에 한 번만 등록된 인스턴스
func Default() *PipelineMetrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New reg 에 메트릭 등록 (테스트는 prometheus.NewRegistry() 사용)
func New(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)

	return &PipelineMetrics{
		KeywordsIngestedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_keywords_ingested_total",
				Help: "수집되어 저장된 키워드 수",
			},
			[]string{"source"},
		),
		KeywordsDedupedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_keywords_deduped_total",
				Help: "dedup 으로 삭제된 키워드 행 수",
			},
		),
		CandidatesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_product_candidates_total",
				Help: "추천으로 생성된 상품 후보 수",
			},
		),
		AffiliateMappedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_affiliate_mapped_total",
				Help: "제휴 링크 매핑 횟수",
			},
		),
		DraftsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_drafts_total",
				Help: "생성된 초안 수",
			},
			[]string{"template", "compare"},
		),
		PostsPublishedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_posts_published_total",
				Help: "발행/예약 처리된 글 수",
			},
			[]string{"status", "trigger"},
		),

		BudgetReservationsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_reservations_total",
				Help: "예산 예약 결과별 횟수",
			},
			[]string{"result"},
		),
		BudgetSpentUSDTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "budget_spent_usd_total",
				Help: "확정된 AI 사용액 (USD)",
			},
		),
		BudgetOverageUSDTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "budget_overage_usd_total",
				Help: "한도를 넘어 확정된 초과 사용액 (USD)",
			},
		),

		ProviderCallsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_provider_calls_total",
				Help: "AI 공급자 호출 결과별 횟수",
			},
			[]string{"provider", "size", "outcome"},
		),
		ProviderCallDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ai_provider_call_duration_seconds",
				Help:    "AI 공급자 호출 시간 (재시도 포함)",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 9), // 0.25s ~ 64s
			},
			[]string{"provider", "size"},
		),
		ProviderTokensTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_provider_tokens_total",
				Help: "AI 공급자가 보고한 토큰 사용량",
			},
			[]string{"provider", "model"},
		),
		ProviderRetriesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_provider_retries_total",
				Help: "일시 오류로 인한 재시도 횟수",
			},
			[]string{"provider"},
		),

		HTTPRequestsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP 요청 수",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP 요청 처리 시간",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *PipelineMetrics) RecordKeywordsIngested(source string, count int) {
	if m == nil {
		return
	}
	m.KeywordsIngestedTotal.WithLabelValues(source).Add(float64(count))
}

func (m *PipelineMetrics) RecordKeywordsDeduped(removed int64) {
	if m == nil {
		return
	}
	m.KeywordsDedupedTotal.Add(float64(removed))
}

func (m *PipelineMetrics) RecordCandidates(count int) {
	if m == nil {
		return
	}
	m.CandidatesTotal.Add(float64(count))
}

func (m *PipelineMetrics) RecordAffiliateMapped() {
	if m == nil {
		return
	}
	m.AffiliateMappedTotal.Inc()
}

func (m *PipelineMetrics) RecordDraft(template string, compare bool) {
	if m == nil {
		return
	}
	m.DraftsTotal.WithLabelValues(template, strconv.FormatBool(compare)).Inc()
}

// RecordPublish trigger 는 manual 또는 scheduler
func (m *PipelineMetrics) RecordPublish(status, trigger string) {
	if m == nil {
		return
	}
	m.PostsPublishedTotal.WithLabelValues(status, trigger).Inc()
}

// RecordReservation result: accepted, rejected, committed, released
func (m *PipelineMetrics) RecordReservation(result string) {
	if m == nil {
		return
	}
	m.BudgetReservationsTotal.WithLabelValues(result).Inc()
}

func (m *PipelineMetrics) RecordSpend(usd, overage float64) {
	if m == nil {
		return
	}
	m.BudgetSpentUSDTotal.Add(usd)
	if overage > 0 {
		m.BudgetOverageUSDTotal.Add(overage)
	}
}

func (m *PipelineMetrics) RecordProviderCall(provider, size, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCallsTotal.WithLabelValues(provider, size, outcome).Inc()
	m.ProviderCallDuration.WithLabelValues(provider, size).Observe(elapsed.Seconds())
}

func (m *PipelineMetrics) RecordTokens(provider, model string, tokens int64) {
	if m == nil || tokens <= 0 {
		return
	}
	m.ProviderTokensTotal.WithLabelValues(provider, model).Add(float64(tokens))
}

func (m *PipelineMetrics) RecordRetry(provider string) {
	if m == nil {
		return
	}
	m.ProviderRetriesTotal.WithLabelValues(provider).Inc()
}

func (m *PipelineMetrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
