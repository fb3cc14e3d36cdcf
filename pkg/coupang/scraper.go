package coupang

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124 Safari/537.36"

// ProductSpecs 상품 상세 페이지에서 읽은 정보
type ProductSpecs struct {
	Title     string
	PriceText string
	Bullets   []string
	Specs     map[string]string
	Images    []string
	SourceURL string
}

// Scraper 비로그인 best-effort 스크래퍼
type Scraper struct {
	client  *http.Client
	baseURL string
}

// NewScraper 스크래퍼 생성 (baseURL 이 비면 쿠팡 본 사이트)
func NewScraper(timeout time.Duration, baseURL string) *Scraper {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, resp.Request.URL.String(), nil
}

// TopProductURL 검색 결과 첫 상품 URL, 찾지 못하면 빈 문자열
func (s *Scraper) TopProductURL(ctx context.Context, query string) (string, error) {
	doc, _, err := s.fetchDocument(ctx, searchURL(s.baseURL, query))
	if err != nil {
		return "", err
	}

	if html, err := doc.Html(); err == nil {
		if m := productPathExpr.FindStringSubmatch(html); m != nil {
			return s.baseURL + "/vp/products/" + m[1], nil
		}
	}

	sel := doc.Find("a.search-product-link").First()
	if sel.Length() == 0 {
		sel = doc.Find(`a[href*="/vp/products/"]`).First()
	}
	href, ok := sel.Attr("href")
	if !ok || href == "" {
		return "", nil
	}
	if strings.HasPrefix(href, "http") {
		return href, nil
	}
	return s.baseURL + href, nil
}

// FetchSpecs 상품 페이지의 제목/가격/특징/스펙표/이미지
func (s *Scraper) FetchSpecs(ctx context.Context, productURL string) (*ProductSpecs, error) {
	if productURL == "" {
		return nil, fmt.Errorf("empty product url")
	}
	doc, finalURL, err := s.fetchDocument(ctx, productURL)
	if err != nil {
		return nil, err
	}

	specs := &ProductSpecs{Specs: map[string]string{}, SourceURL: finalURL}
	specs.Title = firstText(doc, "h2.prod-buy-header__title", "#productTitle", "title")
	specs.PriceText = firstText(doc, ".total-price", ".prod-sale-price")

	doc.Find(".prod-description-attribute li, .prod-attr-list li, .prod-feature li").EachWithBreak(func(i int, li *goquery.Selection) bool {
		if t := normalizeSpace(li.Text()); t != "" {
			specs.Bullets = append(specs.Bullets, t)
		}
		return len(specs.Bullets) < 12
	})

	doc.Find(".prod-description-table tr, table tr").Each(func(i int, row *goquery.Selection) {
		key := normalizeSpace(row.Find("th").First().Text())
		val := normalizeSpace(row.Find("td").First().Text())
		if key != "" && val != "" && len([]rune(key)) < 40 && len([]rune(val)) < 200 {
			specs.Specs[key] = val
		}
	})

	doc.Find(".prod-image__detail img, .prod-image__items img, img[src]").EachWithBreak(func(i int, img *goquery.Selection) bool {
		src, ok := img.Attr("data-src")
		if !ok || src == "" {
			src, _ = img.Attr("src")
		}
		if strings.HasPrefix(src, "http") {
			specs.Images = append(specs.Images, src)
		}
		return len(specs.Images) < 8
	})

	return specs, nil
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := normalizeSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
