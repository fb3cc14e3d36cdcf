package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"github.com/ikkim/coupang-partners-backend/pkg/redis"
	"github.com/ikkim/coupang-partners-backend/pkg/trends"
	"gorm.io/gorm"
)

// FetchResult 수집 결과
type FetchResult struct {
	Date     string          `json:"date"`
	Source   string          `json:"source"`
	Fetched  int             `json:"fetched"`
	Removed  int64           `json:"deduped"`
	Keywords []model.Keyword `json:"keywords"`
}

type KeywordService interface {
	Fetch(ctx context.Context, date string) (*FetchResult, error)
	List(date string, limit int) ([]model.Keyword, error)
	Dedup(ctx context.Context, date string) (int64, error)
}

type keywordService struct {
	keywordRepo repository.KeywordRepository
	db          *gorm.DB
	source      trends.Source
	locker      redis.Locker
	loc         *time.Location
	publisher   events.Publisher
	metrics     *metrics.PipelineMetrics
	now         func() time.Time
}

func NewKeywordService(
	keywordRepo repository.KeywordRepository,
	db *gorm.DB,
	source trends.Source,
	locker redis.Locker,
	loc *time.Location,
	publisher events.Publisher,
	m *metrics.PipelineMetrics,
) KeywordService {
	if loc == nil {
		loc = time.UTC
	}
	if locker == nil {
		locker = redis.NewLocalLocker()
	}
	return &keywordService{
		keywordRepo: keywordRepo,
		db:          db,
		source:      source,
		locker:      locker,
		loc:         loc,
		publisher:   publisher,
		metrics:     m,
		now:         time.Now,
	}
}

// resolveDate 빈 값이면 오늘(설정 타임존)
func (s *keywordService) resolveDate(date string) (string, time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		now := s.now().In(s.loc)
		return now.Format(model.IngestionDateLayout), now, nil
	}
	t, err := time.ParseInLocation(model.IngestionDateLayout, date, s.loc)
	if err != nil {
		return "", time.Time{}, newValidationError(ErrInvalidDate, "date",
			fmt.Sprintf("%q is not YYYY-MM-DD", date))
	}
	return date, t, nil
}

// keywordsLockKey 키워드 쓰기(수집, dedup, 삭제)는 날짜와 무관하게 하나의 락으로 직렬화
// 전체 범위 삭제/dedup 이 날짜별 수집과 겹치지 않게 한다
const keywordsLockKey = "keywords"

// Fetch 트렌드 소스에서 받아 추가한 뒤 같은 트랜잭션에서 dedup
// 같은 날짜의 fetch/dedup 은 락으로 직렬화
func (s *keywordService) Fetch(ctx context.Context, date string) (*FetchResult, error) {
	date, day, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	records, err := s.source.Fetch(ctx, day)
	if err != nil {
		logger.Error("Failed to fetch keywords from trend source", err, map[string]interface{}{
			"source": s.source.Name(),
			"date":   date,
		})
		return nil, fmt.Errorf("fetch keywords from %s: %w", s.source.Name(), err)
	}

	fetchedAt := s.now().UTC()
	seen := mapset.NewThreadUnsafeSet[string]()
	batch := make([]model.Keyword, 0, len(records))
	for _, rec := range records {
		text := strings.Join(strings.Fields(rec.Text), " ")
		if text == "" || !seen.Add(text) {
			continue
		}
		at := fetchedAt
		if !rec.FetchedAt.IsZero() {
			at = rec.FetchedAt.UTC()
		}
		batch = append(batch, model.Keyword{
			Text:          text,
			Score:         rec.Score,
			Category:      rec.Category,
			Status:        model.KeywordCollected,
			IngestionDate: date,
			FetchedAt:     at,
		})
	}

	unlock, err := s.locker.Lock(ctx, keywordsLockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	repo := s.keywordRepo.WithTx(tx)
	if err := repo.CreateBatch(batch); err != nil {
		tx.Rollback()
		return nil, err
	}
	removed, err := repo.Dedup(date)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit keyword fetch", err, map[string]interface{}{
			"date": date,
		})
		return nil, err
	}

	keywords, err := s.keywordRepo.List(repository.KeywordFilter{Date: date})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordKeywordsIngested(s.source.Name(), len(batch))
	s.metrics.RecordKeywordsDeduped(removed)
	events.Emit(ctx, s.publisher, events.New(events.KeywordIngested, "keywords:"+date, map[string]interface{}{
		"source":  s.source.Name(),
		"fetched": len(batch),
		"deduped": removed,
	}))
	logger.Info("Keywords fetched", map[string]interface{}{
		"source":  s.source.Name(),
		"date":    date,
		"fetched": len(batch),
		"deduped": removed,
	})

	return &FetchResult{
		Date:     date,
		Source:   s.source.Name(),
		Fetched:  len(batch),
		Removed:  removed,
		Keywords: keywords,
	}, nil
}

// List date 가 비어 있으면 전체 최신순
func (s *keywordService) List(date string, limit int) ([]model.Keyword, error) {
	if strings.TrimSpace(date) != "" {
		var err error
		if date, _, err = s.resolveDate(date); err != nil {
			return nil, err
		}
	}
	return s.keywordRepo.List(repository.KeywordFilter{Date: date, Limit: limit})
}

// Dedup date 가 비어 있으면 모든 날짜 대상
func (s *keywordService) Dedup(ctx context.Context, date string) (int64, error) {
	key := "all"
	if strings.TrimSpace(date) != "" {
		var err error
		if date, _, err = s.resolveDate(date); err != nil {
			return 0, err
		}
		key = date
	}

	unlock, err := s.locker.Lock(ctx, keywordsLockKey)
	if err != nil {
		return 0, err
	}
	defer unlock()

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	removed, err := s.keywordRepo.WithTx(tx).Dedup(date)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	s.metrics.RecordKeywordsDeduped(removed)
	if removed > 0 {
		events.Emit(ctx, s.publisher, events.New(events.KeywordDeduped, "keywords:"+key, map[string]interface{}{
			"removed": removed,
		}))
	}
	logger.Info("Keywords deduplicated", map[string]interface{}{
		"date":    key,
		"removed": removed,
	})
	return removed, nil
}
