package coupang

import (
	"net/url"
	"regexp"
	"strings"
)

const DefaultBaseURL = "https://www.coupang.com"

var productPathExpr = regexp.MustCompile(`/vp/products/(\d+)`)

// SearchURL 쿠팡 검색 결과 URL
func SearchURL(query string) string {
	return searchURL(DefaultBaseURL, query)
}

func searchURL(base, query string) string {
	return base + "/np/search?q=" + url.QueryEscape(strings.TrimSpace(query)) + "&channel=user"
}

// BuildSearchURL 브랜드+모델, 없으면 상품명 추정치, 그것도 없으면 키워드로 검색 URL 생성
func BuildSearchURL(titleGuess, brand, model, keyword string) string {
	return SearchURL(SearchQuery(titleGuess, brand, model, keyword))
}

// SearchQuery 검색어 선택 규칙
func SearchQuery(titleGuess, brand, model, keyword string) string {
	var parts []string
	for _, s := range []string{brand, model} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if q := strings.Join(parts, " "); q != "" {
		return q
	}
	if q := strings.TrimSpace(titleGuess); q != "" {
		return q
	}
	return strings.TrimSpace(keyword)
}

// ProductID 상품 URL의 /vp/products/<id> 추출
func ProductID(rawURL string) (string, bool) {
	m := productPathExpr.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsCoupangURL 쿠팡 상품/단축(link.coupang.com) 링크 여부
func IsCoupangURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "coupang.com" || strings.HasSuffix(host, ".coupang.com")
}
