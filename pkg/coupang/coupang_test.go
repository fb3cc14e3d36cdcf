package coupang

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchURL(t *testing.T) {
	tests := []struct {
		name                         string
		title, brand, model, keyword string
		want                         string
	}{
		{"brand and model", "무선청소기 A", "LG", "A9", "무선청소기", "https://www.coupang.com/np/search?q=LG+A9&channel=user"},
		{"title fallback", "무선청소기 A", "", "", "무선청소기", "https://www.coupang.com/np/search?q=%EB%AC%B4%EC%84%A0%EC%B2%AD%EC%86%8C%EA%B8%B0+A&channel=user"},
		{"keyword fallback", "", " ", "", "mouse", "https://www.coupang.com/np/search?q=mouse&channel=user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSearchURL(tt.title, tt.brand, tt.model, tt.keyword))
		})
	}
}

func TestProductIDAndHost(t *testing.T) {
	id, ok := ProductID("https://www.coupang.com/vp/products/12345?itemId=9")
	assert.True(t, ok)
	assert.Equal(t, "12345", id)

	_, ok = ProductID("https://example.com/x")
	assert.False(t, ok)

	assert.True(t, IsCoupangURL("https://link.coupang.com/a/abc"))
	assert.True(t, IsCoupangURL("https://coupang.com/vp/products/1"))
	assert.False(t, IsCoupangURL("https://notcoupang.com/x"))
	assert.False(t, IsCoupangURL("not a url"))
}

func TestScraper_TopProductURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/np/search", r.URL.Path)
		assert.Equal(t, "LG A9", r.URL.Query().Get("q"))
		w.Write([]byte(`<html><body><ul><li><a class="search-product-link" href="/vp/products/777?itemId=1">x</a></li></ul></body></html>`))
	}))
	defer srv.Close()

	s := NewScraper(time.Second, srv.URL)
	got, err := s.TopProductURL(context.Background(), "LG A9")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/vp/products/777", got)
}

func TestScraper_FetchSpecs(t *testing.T) {
	page := `<html><head><title>fallback</title></head><body>
<h2 class="prod-buy-header__title">  LG 코드제로   A9 </h2>
<span class="total-price">399,000원</span>
<ul class="prod-attr-list"><li>흡입력 200W</li><li>무게 2.5kg</li></ul>
<table class="prod-description-table">
<tr><th>용량</th><td>0.44L</td></tr>
<tr><th>소음(dB)</th><td>72</td></tr>
<tr><th></th><td>skip</td></tr>
</table>
<img data-src="https://img.example/1.jpg" src="/local.png">
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	specs, err := NewScraper(time.Second, srv.URL).FetchSpecs(context.Background(), srv.URL+"/vp/products/1")
	require.NoError(t, err)

	assert.Equal(t, "LG 코드제로 A9", specs.Title)
	assert.Equal(t, "399,000원", specs.PriceText)
	assert.Equal(t, []string{"흡입력 200W", "무게 2.5kg"}, specs.Bullets)
	assert.Equal(t, map[string]string{"용량": "0.44L", "소음(dB)": "72"}, specs.Specs)
	assert.Equal(t, []string{"https://img.example/1.jpg"}, specs.Images)
}

func TestScraper_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewScraper(time.Second, srv.URL).FetchSpecs(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestBuildSpecTable(t *testing.T) {
	table := BuildSpecTable([]SpecRow{
		{Name: "A9", Specs: map[string]string{"용량": "0.44L"}, Feature: "가벼움"},
	}, nil)

	assert.Equal(t,
		"| 모델 | 용량 | 소음(dB) | 전력(W) | 무게(kg) | 특징 |\n"+
			"|---|---|---|---|---|---|\n"+
			"| A9 | 0.44L |  |  |  | 가벼움 |\n",
		table)
}

func TestAltNames(t *testing.T) {
	html := `<a href="https://link.coupang.com/a/1"><img alt="LG A9" src="x"></a>
<a><img alt="LG A9"></a><a><img alt=" 삼성 제트 "></a><img alt="">`

	assert.Equal(t, []string{"LG A9", "삼성 제트"}, AltNames(html, 5))
	assert.Equal(t, []string{"LG A9"}, AltNames(html, 1))
	assert.Nil(t, AltNames("", 5))
}
