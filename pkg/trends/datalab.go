package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/coupang-partners-backend/pkg/naver"
)

// DataLabSearcher naver.Client 의 DataLab 부분
type DataLabSearcher interface {
	SearchTrend(ctx context.Context, keywords []string, end time.Time, days int) ([]naver.TrendSeries, error)
}

var defaultSeeds = []string{"무선 청소기", "공기청정기", "캠핑 의자", "게이밍 마우스", "에어프라이어"}

// DataLabSource 시드 키워드의 최근 30일 검색 추세 점수
type DataLabSource struct {
	client   DataLabSearcher
	seeds    []string
	category string
	now      func() time.Time
}

func NewDataLabSource(client DataLabSearcher, seeds []string, category string, now func() time.Time) *DataLabSource {
	if len(seeds) == 0 {
		seeds = defaultSeeds
	}
	return &DataLabSource{client: client, seeds: seeds, category: category, now: now}
}

func (s *DataLabSource) Name() string { return KindDataLab }

func (s *DataLabSource) Fetch(ctx context.Context, date time.Time) ([]Record, error) {
	var records []Record
	fetchedAt := s.now()
	// 요청당 5개 그룹 제한
	for start := 0; start < len(s.seeds); start += 5 {
		end := start + 5
		if end > len(s.seeds) {
			end = len(s.seeds)
		}
		series, err := s.client.SearchTrend(ctx, s.seeds[start:end], date, 30)
		if err != nil {
			return nil, fmt.Errorf("datalab search: %w", err)
		}
		for _, k := range naver.RankSeries(series) {
			records = append(records, Record{Text: k.Keyword, Score: k.Score, Category: s.category, FetchedAt: fetchedAt})
		}
	}
	return records, nil
}
