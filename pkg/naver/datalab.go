package naver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// ErrDataLabNotConfigured client id/secret 미설정
var ErrDataLabNotConfigured = errors.New("naver datalab client credentials not configured")

type keywordGroup struct {
	GroupName string   `json:"groupName"`
	Keywords  []string `json:"keywords"`
}

type searchTrendRequest struct {
	StartDate     string         `json:"startDate"`
	EndDate       string         `json:"endDate"`
	TimeUnit      string         `json:"timeUnit"`
	KeywordGroups []keywordGroup `json:"keywordGroups"`
}

// TrendPoint 기간별 검색 비율
type TrendPoint struct {
	Period string  `json:"period"`
	Ratio  float64 `json:"ratio"`
}

// TrendSeries 키워드 그룹별 검색 비율 시계열
type TrendSeries struct {
	Title    string       `json:"title"`
	Keywords []string     `json:"keywords"`
	Data     []TrendPoint `json:"data"`
}

type searchTrendResponse struct {
	Results []TrendSeries `json:"results"`
}

// ScoredKeyword 추세 점수가 붙은 키워드
type ScoredKeyword struct {
	Keyword   string
	Score     float64
	LastRatio float64
}

// SearchTrend DataLab 통합검색어 트렌드 조회 (최근 days 일, 일 단위)
func (c *Client) SearchTrend(ctx context.Context, keywords []string, end time.Time, days int) ([]TrendSeries, error) {
	if c.config.ClientID == "" || c.config.ClientSecret == "" {
		return nil, ErrDataLabNotConfigured
	}
	if days <= 0 {
		days = 30
	}

	payload := searchTrendRequest{
		StartDate: end.AddDate(0, 0, -days).Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		TimeUnit:  "date",
	}
	// DataLab 은 요청당 키워드 그룹 5개까지
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		payload.KeywordGroups = append(payload.KeywordGroups, keywordGroup{GroupName: kw, Keywords: []string{kw}})
		if len(payload.KeywordGroups) == 5 {
			break
		}
	}
	if len(payload.KeywordGroups) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIBaseURL+"/v1/datalab/search", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.config.ClientID)
	req.Header.Set("X-Naver-Client-Secret", c.config.ClientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datalab request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read datalab response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("datalab unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchTrendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode datalab response: %w", err)
	}
	return parsed.Results, nil
}

// TrendScore 마지막 비율 - 직전 구간 후반부 평균
func TrendScore(ratios []float64) float64 {
	if len(ratios) == 0 {
		return 0
	}
	last := ratios[len(ratios)-1]
	prev := ratios[:len(ratios)-1]
	if len(prev) == 0 {
		prev = []float64{0}
	}
	prev = prev[len(prev)/2:]

	var sum float64
	for _, v := range prev {
		sum += v
	}
	return last - sum/float64(len(prev))
}

// RankSeries 시계열을 점수 내림차순으로 정렬
func RankSeries(series []TrendSeries) []ScoredKeyword {
	scored := make([]ScoredKeyword, 0, len(series))
	for _, s := range series {
		if len(s.Data) == 0 {
			continue
		}
		ratios := make([]float64, len(s.Data))
		for i, d := range s.Data {
			ratios[i] = d.Ratio
		}
		name := s.Title
		if name == "" && len(s.Keywords) > 0 {
			name = s.Keywords[0]
		}
		scored = append(scored, ScoredKeyword{
			Keyword:   name,
			Score:     TrendScore(ratios),
			LastRatio: ratios[len(ratios)-1],
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}
