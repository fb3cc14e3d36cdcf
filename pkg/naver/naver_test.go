package naver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LoginURL(t *testing.T) {
	c := NewClient(Config{ClientID: "cid", RedirectURI: "http://localhost/cb", AuthBaseURL: "https://nid.example/"})
	u, err := url.Parse(c.LoginURL("xyz"))
	require.NoError(t, err)

	assert.Equal(t, "/oauth2.0/authorize", u.Path)
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
}

func TestClient_Publish(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantID  string
		wantURL string
		wantErr error
	}{
		{name: "top level post id", status: 200, body: `{"postId":123}`, wantID: "123", wantURL: "https://blog.naver.com/myblog/123"},
		{name: "nested result", status: 200, body: `{"message":{"result":{"logNo":456,"postUrl":"https://blog.naver.com/x/456"}}}`, wantID: "456", wantURL: "https://blog.naver.com/x/456"},
		{name: "no post id", status: 200, body: `{}`, wantErr: ErrPublishFailed},
		{name: "expired token", status: 401, body: `{"errorMessage":"expired"}`, wantErr: ErrUnauthorized},
		{name: "server error", status: 500, body: `oops`, wantErr: ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/blog/writePost.json", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "제목", r.PostForm.Get("title"))
				assert.Equal(t, "myblog", r.PostForm.Get("blogId"))
				assert.Equal(t, "a,b", r.PostForm.Get("tags"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{APIBaseURL: srv.URL, BlogID: "myblog"})
			res, err := c.Publish(context.Background(), "tok", PublishRequest{Title: "제목", Contents: "<p>본문</p>", Tags: []string{"a", "b"}})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.PostID)
			assert.Equal(t, tt.wantURL, res.URL)
		})
	}
}

func TestClient_PublishWithoutToken(t *testing.T) {
	_, err := NewClient(Config{}).Publish(context.Background(), "", PublishRequest{})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestTrendScore(t *testing.T) {
	assert.Equal(t, 0.0, TrendScore(nil))
	assert.Equal(t, 5.0, TrendScore([]float64{5}))
	// prev = [10,20,30,40] -> 후반부 [30,40] 평균 35
	assert.Equal(t, 15.0, TrendScore([]float64{10, 20, 30, 40, 50}))
}

func TestClient_SearchTrend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cid", r.Header.Get("X-Naver-Client-Id"))
		var req searchTrendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2025-10-01", req.EndDate)
		assert.Equal(t, "2025-09-01", req.StartDate)
		assert.Len(t, req.KeywordGroups, 2)
		w.Write([]byte(`{"results":[
			{"title":"캠핑 의자","keywords":["캠핑 의자"],"data":[{"period":"a","ratio":10},{"period":"b","ratio":12}]},
			{"title":"무선 청소기","keywords":["무선 청소기"],"data":[{"period":"a","ratio":10},{"period":"b","ratio":40}]},
			{"title":"empty","data":[]}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{ClientID: "cid", ClientSecret: "sec", APIBaseURL: srv.URL})
	end := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	series, err := c.SearchTrend(context.Background(), []string{"캠핑 의자", "", "무선 청소기"}, end, 30)
	require.NoError(t, err)

	ranked := RankSeries(series)
	require.Len(t, ranked, 2)
	assert.Equal(t, "무선 청소기", ranked[0].Keyword)
	assert.Equal(t, 30.0, ranked[0].Score)
	assert.Equal(t, 40.0, ranked[0].LastRatio)
}

func TestClient_SearchTrendNotConfigured(t *testing.T) {
	_, err := NewClient(Config{}).SearchTrend(context.Background(), []string{"x"}, time.Now(), 7)
	assert.ErrorIs(t, err, ErrDataLabNotConfigured)
}
