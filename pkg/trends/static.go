package trends

import (
	"context"
	"time"
)

type staticKeyword struct {
	text     string
	score    float64
	category string
}

var sampleKeywords = []staticKeyword{
	{"무선 청소기", 0.91, "가전"},
	{"게이밍 마우스", 0.87, "디지털"},
	{"공기청정기 필터", 0.82, "생활"},
	{"캠핑 의자", 0.79, "레저"},
	{"식기세척기 세제", 0.77, "생활"},
}

// StaticSource 외부 연동 없이 고정 샘플을 돌려주는 소스
type StaticSource struct {
	now func() time.Time
}

func NewStaticSource(now func() time.Time) *StaticSource {
	return &StaticSource{now: now}
}

func (s *StaticSource) Name() string { return KindStatic }

func (s *StaticSource) Fetch(ctx context.Context, date time.Time) ([]Record, error) {
	fetchedAt := s.now()
	records := make([]Record, 0, len(sampleKeywords))
	for _, k := range sampleKeywords {
		records = append(records, Record{Text: k.text, Score: k.score, Category: k.category, FetchedAt: fetchedAt})
	}
	return records, nil
}
