package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

// DuePublisher 예약 시각이 지난 글 발행 (service.PublishService)
type DuePublisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// KeywordFetcher 키워드 수집 (service.KeywordService), 빈 날짜는 오늘
type KeywordFetcher interface {
	Fetch(ctx context.Context, date string) (*service.FetchResult, error)
}

// ReservationSweeper 오래된 pending 예약 해제 (service.BudgetService)
type ReservationSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// PipelineScheduler 예약 발행, 일일 키워드 수집, 예산 예약 정리
type PipelineScheduler struct {
	cron     *cron.Cron
	specs    config.SchedulerConfig
	posts    DuePublisher
	keywords KeywordFetcher
	budget   ReservationSweeper
}

// NewPipelineScheduler nil 인 작업과 빈 spec 은 등록하지 않는다
func NewPipelineScheduler(
	specs config.SchedulerConfig,
	loc *time.Location,
	posts DuePublisher,
	keywords KeywordFetcher,
	budget ReservationSweeper,
) *PipelineScheduler {
	if loc == nil {
		loc = time.UTC
	}
	log := cronLogger{}
	return &PipelineScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		specs:    specs,
		posts:    posts,
		keywords: keywords,
		budget:   budget,
	}
}

// Start 스케줄러 시작
func (s *PipelineScheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) (int, error)
		ok   bool
	}{
		{"publish_due", s.specs.PublishSpec, s.runPublishDue, s.posts != nil},
		{"keyword_fetch", s.specs.KeywordFetchSpec, s.runKeywordFetch, s.keywords != nil},
		{"budget_sweep", s.specs.SweepSpec, s.runSweep, s.budget != nil},
	}

	for _, job := range jobs {
		if !job.ok || job.spec == "" {
			continue
		}
		name, run := job.name, job.run
		if _, err := s.cron.AddFunc(job.spec, func() { s.execute(name, run) }); err != nil {
			logger.Error("Failed to add cron job", err, map[string]interface{}{
				"job":  name,
				"spec": job.spec,
			})
			return fmt.Errorf("schedule %s (%q): %w", name, job.spec, err)
		}
		logger.Info("Cron job registered", map[string]interface{}{
			"job":  name,
			"spec": job.spec,
		})
	}

	s.cron.Start()
	logger.Info("Pipeline scheduler started", map[string]interface{}{
		"jobs": len(s.cron.Entries()),
	})
	return nil
}

// Stop 실행 중인 작업이 끝날 때까지 기다린다
func (s *PipelineScheduler) Stop() {
	logger.Info("Stopping pipeline scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Pipeline scheduler stopped")
}

func (s *PipelineScheduler) execute(name string, run func(ctx context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := run(ctx)
	if err != nil {
		logger.Error("Scheduled job failed", err, map[string]interface{}{
			"job": name,
		})
		return
	}
	if n > 0 {
		logger.Info("Scheduled job finished", map[string]interface{}{
			"job":        name,
			"affected":   n,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
	}
}

func (s *PipelineScheduler) runPublishDue(ctx context.Context) (int, error) {
	return s.posts.PublishDue(ctx)
}

func (s *PipelineScheduler) runKeywordFetch(ctx context.Context) (int, error) {
	result, err := s.keywords.Fetch(ctx, "")
	if err != nil {
		return 0, err
	}
	return result.Fetched, nil
}

func (s *PipelineScheduler) runSweep(ctx context.Context) (int, error) {
	return s.budget.SweepStale(ctx)
}

// cronLogger robfig/cron 로그를 앱 로거로 전달
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Get().Component("cron").Debug(msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Get().Component("cron").Error(msg, err, kvFields(keysAndValues))
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
