package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const ProviderOpenAI = "gpt"

// OpenAIConfig OpenAI 접속 정보
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// OpenAIClient chat completions 클라이언트
type OpenAIClient struct {
	config     OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIClient OpenAI 클라이언트 생성
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIClient{
		config:     cfg,
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

func (c *OpenAIClient) Name() string { return ProviderOpenAI }

func (c *OpenAIClient) HasAPIKey() bool { return c.config.APIKey != "" }

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	Temperature    *float64          `json:"temperature,omitempty"`
	MaxTokens      *int              `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// openAIOptions 모델이 거부하는 파라미터를 하나씩 끄기 위한 플래그
type openAIOptions struct {
	maxTokens   bool
	temperature bool
	json        bool
}

// relax 지원되지 않는 파라미터 에러면 해당 옵션을 끈 설정 반환
func (o openAIOptions) relax(pe *ProviderError) (openAIOptions, bool) {
	if pe.StatusCode != http.StatusBadRequest {
		return o, false
	}
	msg := strings.ToLower(pe.Message)
	unsupported := strings.Contains(msg, "unsupported")
	switch {
	case o.maxTokens && unsupported && strings.Contains(msg, "max_tokens"):
		o.maxTokens = false
	case o.temperature && unsupported && strings.Contains(msg, "temperature"):
		o.temperature = false
	case o.json && strings.Contains(msg, "response_format"):
		o.json = false
	default:
		return o, false
	}
	return o, true
}

// Generate chat completion 호출
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if !c.HasAPIKey() {
		return nil, notConfigured(ProviderOpenAI)
	}

	opts := openAIOptions{
		maxTokens:   req.MaxTokens > 0,
		temperature: req.Temperature > 0,
		json:        req.JSON,
	}
	for {
		res, err := c.complete(ctx, req, opts)
		if err == nil {
			return res, nil
		}
		pe, ok := err.(*ProviderError)
		if !ok {
			return nil, err
		}
		next, relaxed := opts.relax(pe)
		if !relaxed {
			return nil, pe
		}
		opts = next
	}
}

func (c *OpenAIClient) complete(ctx context.Context, req Request, opts openAIOptions) (*Result, error) {
	payload := openAIRequest{Model: req.Model}
	if req.System != "" {
		payload.Messages = append(payload.Messages, openAIMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, openAIMessage{Role: "user", Content: req.Prompt})
	if opts.temperature {
		t := req.Temperature
		payload.Temperature = &t
	}
	if opts.maxTokens {
		m := req.MaxTokens
		payload.MaxTokens = &m
	}
	if opts.json {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}

	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	status, body, err := postJSON(ctx, c.httpClient, ProviderOpenAI, c.config.BaseURL+"/chat/completions", headers, payload)
	if err != nil {
		return nil, err
	}

	var resp openAIResponse
	decodeErr := json.Unmarshal(body, &resp)

	if status != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && resp.Error != nil {
			msg = resp.Error.Message
		}
		return nil, classifyStatus(ProviderOpenAI, status, msg)
	}
	if decodeErr != nil {
		return nil, &ProviderError{Provider: ProviderOpenAI, Class: ClassPermanent, Reason: ReasonDecodeResponse, Message: decodeErr.Error(), Err: decodeErr}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &ProviderError{Provider: ProviderOpenAI, Class: ClassPermanent, Reason: ReasonEmptyResponse, Message: "no content returned"}
	}

	res := &Result{
		Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:    req.Model,
		Provider: ProviderOpenAI,
	}
	if resp.Model != "" {
		res.Model = resp.Model
	}
	if resp.Usage != nil {
		res.TotalTokens = resp.Usage.TotalTokens
	}
	return res, nil
}
