package trends

import (
	"context"
	"fmt"
	"time"
)

// Record 외부 소스에서 받은 키워드 한 건
type Record struct {
	Text      string
	Score     float64
	Category  string
	FetchedAt time.Time
}

// Source 키워드 트렌드 공급자
type Source interface {
	Name() string
	Fetch(ctx context.Context, date time.Time) ([]Record, error)
}

const (
	KindStatic  = "static"
	KindDataLab = "datalab"
	KindRSS     = "rss"
	KindXLSX    = "xlsx"
)

// Options 소스 선택/구성 값
type Options struct {
	Kind     string
	RSSURL   string
	XLSXPath string
	Category string
	Seeds    []string
	DataLab  DataLabSearcher
	Now      func() time.Time
}

// New 설정된 kind 에 맞는 소스 생성
func New(opts Options) (Source, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	switch opts.Kind {
	case "", KindStatic:
		return NewStaticSource(now), nil
	case KindRSS:
		if opts.RSSURL == "" {
			return nil, fmt.Errorf("trends: rss source requires a feed url")
		}
		return NewRSSSource(opts.RSSURL, opts.Category, now), nil
	case KindXLSX:
		if opts.XLSXPath == "" {
			return nil, fmt.Errorf("trends: xlsx source requires a file path")
		}
		return NewXLSXSource(opts.XLSXPath, now), nil
	case KindDataLab:
		if opts.DataLab == nil {
			return nil, fmt.Errorf("trends: datalab source requires a naver client")
		}
		return NewDataLabSource(opts.DataLab, opts.Seeds, opts.Category, now), nil
	default:
		return nil, fmt.Errorf("trends: unknown source kind %q", opts.Kind)
	}
}
