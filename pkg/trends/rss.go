package trends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSSource RSS/Atom 피드 항목 제목을 키워드로 사용
// 점수는 피드 순서 기준 (첫 항목 1.0 에서 감소)
type RSSSource struct {
	feedURL    string
	category   string
	feedParser *gofeed.Parser
	now        func() time.Time
}

func NewRSSSource(feedURL, category string, now func() time.Time) *RSSSource {
	return &RSSSource{
		feedURL:    feedURL,
		category:   category,
		feedParser: gofeed.NewParser(),
		now:        now,
	}
}

func (s *RSSSource) Name() string { return KindRSS }

func (s *RSSSource) Fetch(ctx context.Context, date time.Time) ([]Record, error) {
	feed, err := s.feedParser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed contains no items")
	}

	fetchedAt := s.now()
	n := len(feed.Items)
	records := make([]Record, 0, n)
	for i, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		category := s.category
		if len(item.Categories) > 0 && category == "" {
			category = item.Categories[0]
		}
		records = append(records, Record{
			Text:      title,
			Score:     1 - float64(i)/float64(n),
			Category:  category,
			FetchedAt: fetchedAt,
		})
	}
	return records, nil
}
