package trends

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ikkim/coupang-partners-backend/pkg/naver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = func() time.Time { return time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC) }

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantName string
		wantErr  bool
	}{
		{name: "default static", opts: Options{}, wantName: KindStatic},
		{name: "rss", opts: Options{Kind: KindRSS, RSSURL: "http://x"}, wantName: KindRSS},
		{name: "rss without url", opts: Options{Kind: KindRSS}, wantErr: true},
		{name: "xlsx without path", opts: Options{Kind: KindXLSX}, wantErr: true},
		{name: "datalab without client", opts: Options{Kind: KindDataLab}, wantErr: true},
		{name: "unknown", opts: Options{Kind: "google"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, src.Name())
		})
	}
}

func TestStaticSource(t *testing.T) {
	records, err := NewStaticSource(fixedNow).Fetch(context.Background(), fixedNow())
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, "무선 청소기", records[0].Text)
	assert.Equal(t, fixedNow(), records[0].FetchedAt)
}

func TestRSSSource(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>trends</title>
<item><title>무선 청소기</title><link>http://a</link></item>
<item><title> </title><link>http://b</link></item>
<item><title>캠핑 의자</title><link>http://c</link><category>레저</category></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	records, err := NewRSSSource(srv.URL, "", fixedNow).Fetch(context.Background(), fixedNow())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "무선 청소기", records[0].Text)
	assert.Equal(t, 1.0, records[0].Score)
	assert.Equal(t, "캠핑 의자", records[1].Text)
	assert.Equal(t, "레저", records[1].Category)
}

func TestXLSXSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"keyword", "score", "category"},
		{"무선 청소기", 0.9, "가전"},
		{"", 0.5, "skip"},
		{"캠핑 의자"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := NewXLSXSource(path, fixedNow).Fetch(context.Background(), fixedNow())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{Text: "무선 청소기", Score: 0.9, Category: "가전", FetchedAt: fixedNow()}, records[0])
	assert.Equal(t, "캠핑 의자", records[1].Text)
	assert.Zero(t, records[1].Score)
}

type fakeDataLab struct {
	calls [][]string
	err   error
}

func (f *fakeDataLab) SearchTrend(ctx context.Context, keywords []string, end time.Time, days int) ([]naver.TrendSeries, error) {
	f.calls = append(f.calls, keywords)
	if f.err != nil {
		return nil, f.err
	}
	var out []naver.TrendSeries
	for i, kw := range keywords {
		out = append(out, naver.TrendSeries{
			Title: kw,
			Data:  []naver.TrendPoint{{Period: "p", Ratio: float64(i)}},
		})
	}
	return out, nil
}

func TestDataLabSource(t *testing.T) {
	fake := &fakeDataLab{}
	seeds := []string{"a", "b", "c", "d", "e", "f", "g"}
	records, err := NewDataLabSource(fake, seeds, "생활", fixedNow).Fetch(context.Background(), fixedNow())
	require.NoError(t, err)

	assert.Len(t, fake.calls, 2)
	assert.Len(t, fake.calls[0], 5)
	assert.Len(t, records, 7)
	assert.Equal(t, "e", records[0].Text)
	assert.Equal(t, "생활", records[0].Category)

	fake.err = errors.New("boom")
	_, err = NewDataLabSource(fake, seeds, "", fixedNow).Fetch(context.Background(), fixedNow())
	assert.Error(t, err)
}
