package trends

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSXSource 첫 시트의 (키워드, 점수, 카테고리) 행을 읽는 소스
// 첫 행은 헤더
type XLSXSource struct {
	path string
	now  func() time.Time
}

func NewXLSXSource(path string, now func() time.Time) *XLSXSource {
	return &XLSXSource{path: path, now: now}
}

func (s *XLSXSource) Name() string { return KindXLSX }

func (s *XLSXSource) Fetch(ctx context.Context, date time.Time) ([]Record, error) {
	return ReadXLSX(s.path, s.now())
}

// ReadXLSX 키워드 시트 파싱 (cmd/seed 에서도 사용)
func ReadXLSX(path string, fetchedAt time.Time) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var records []Record
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		text := strings.TrimSpace(row[0])
		if text == "" {
			continue
		}
		rec := Record{Text: text, FetchedAt: fetchedAt}
		if len(row) > 1 {
			if score, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64); err == nil {
				rec.Score = score
			}
		}
		if len(row) > 2 {
			rec.Category = strings.TrimSpace(row[2])
		}
		records = append(records, rec)
	}
	return records, nil
}
