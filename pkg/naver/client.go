package naver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotConnected 저장된 액세스 토큰 없음
	ErrNotConnected = errors.New("naver blog is not connected")

	// ErrUnauthorized 토큰 만료/거부
	ErrUnauthorized = errors.New("naver api rejected the access token")

	// ErrPublishFailed 글 등록 실패
	ErrPublishFailed = errors.New("naver blog publish failed")
)

// Config 네이버 오픈API 설정
type Config struct {
	ClientID     string
	ClientSecret string
	BlogID       string
	RedirectURI  string
	APIBaseURL   string
	AuthBaseURL  string
	Timeout      time.Duration
}

// Client 네이버 블로그 글쓰기/DataLab 클라이언트
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient 네이버 클라이언트 생성
func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://openapi.naver.com"
	}
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = "https://nid.naver.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.AuthBaseURL = strings.TrimRight(cfg.AuthBaseURL, "/")
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// LoginURL OAuth 인가 페이지 URL
func (c *Client) LoginURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.config.ClientID)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("state", state)
	return c.config.AuthBaseURL + "/oauth2.0/authorize?" + q.Encode()
}

// PublishRequest 블로그 글 등록 요청
type PublishRequest struct {
	Title    string
	Contents string // HTML 또는 마크다운 본문
	Tags     []string
}

// PublishResult 등록된 원격 글 정보
type PublishResult struct {
	PostID string
	URL    string
}

type writePostResponse struct {
	PostID  json.Number `json:"postId"`
	PostURL string      `json:"postUrl"`
	Result  *struct {
		PostID  json.Number `json:"postId"`
		LogNo   json.Number `json:"logNo"`
		PostURL string      `json:"postUrl"`
	} `json:"result"`
	Message *struct {
		Result *struct {
			PostID  json.Number `json:"postId"`
			LogNo   json.Number `json:"logNo"`
			PostURL string      `json:"postUrl"`
		} `json:"result"`
	} `json:"message"`
	ErrorMessage string `json:"errorMessage"`
}

func (r *writePostResponse) postID() string {
	if r.PostID != "" {
		return r.PostID.String()
	}
	if r.Result != nil {
		if r.Result.PostID != "" {
			return r.Result.PostID.String()
		}
		return r.Result.LogNo.String()
	}
	if r.Message != nil && r.Message.Result != nil {
		if r.Message.Result.PostID != "" {
			return r.Message.Result.PostID.String()
		}
		return r.Message.Result.LogNo.String()
	}
	return ""
}

func (r *writePostResponse) postURL() string {
	switch {
	case r.PostURL != "":
		return r.PostURL
	case r.Result != nil && r.Result.PostURL != "":
		return r.Result.PostURL
	case r.Message != nil && r.Message.Result != nil:
		return r.Message.Result.PostURL
	}
	return ""
}

// Publish writePost.json 호출
func (c *Client) Publish(ctx context.Context, accessToken string, req PublishRequest) (*PublishResult, error) {
	if accessToken == "" {
		return nil, ErrNotConnected
	}

	form := url.Values{}
	form.Set("title", req.Title)
	form.Set("contents", req.Contents)
	if c.config.BlogID != "" {
		form.Set("blogId", c.config.BlogID)
	}
	if len(req.Tags) > 0 {
		form.Set("tags", strings.Join(req.Tags, ","))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIBaseURL+"/v1/blog/writePost.json", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrPublishFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnauthorized, resp.StatusCode, string(body))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", ErrPublishFailed, resp.StatusCode, string(body))
	}

	var parsed writePostResponse
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrPublishFailed, err)
	}

	postID := parsed.postID()
	if postID == "" {
		return nil, fmt.Errorf("%w: response has no post id: %s", ErrPublishFailed, string(body))
	}

	result := &PublishResult{PostID: postID, URL: parsed.postURL()}
	if result.URL == "" && c.config.BlogID != "" {
		result.URL = fmt.Sprintf("https://blog.naver.com/%s/%s", c.config.BlogID, postID)
	}
	return result, nil
}
