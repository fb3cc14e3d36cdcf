package coupang

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSpecColumns 비교표 기본 열
var DefaultSpecColumns = []string{"용량", "소음(dB)", "전력(W)", "무게(kg)", "특징"}

// SpecRow 비교표 한 행
type SpecRow struct {
	Name    string
	Specs   map[string]string
	Feature string
}

// BuildSpecTable 마크다운 비교표 생성
// 스펙에 "특징" 이 없으면 Feature 로 채움
func BuildSpecTable(rows []SpecRow, columns []string) string {
	if len(columns) == 0 {
		columns = DefaultSpecColumns
	}

	var sb strings.Builder
	sb.WriteString("| 모델 | " + strings.Join(columns, " | ") + " |\n")
	sb.WriteString(strings.Repeat("|---", len(columns)+1) + "|\n")
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			v := row.Specs[col]
			if v == "" && col == "특징" {
				v = row.Feature
			}
			values[i] = v
		}
		sb.WriteString("| " + row.Name + " | " + strings.Join(values, " | ") + " |\n")
	}
	return sb.String()
}

// AltNames 제휴 HTML 위젯의 img alt 텍스트 (중복 제거, 최대 limit 개)
func AltNames(affiliateHTML string, limit int) []string {
	if strings.TrimSpace(affiliateHTML) == "" || limit <= 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(affiliateHTML))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var names []string
	doc.Find("[alt]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		alt := normalizeSpace(s.AttrOr("alt", ""))
		if alt == "" {
			return true
		}
		if _, ok := seen[alt]; !ok {
			seen[alt] = struct{}{}
			names = append(names, alt)
		}
		return len(names) < limit
	})
	return names
}
