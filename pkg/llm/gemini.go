package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const ProviderGemini = "gemini"

// GeminiConfig Gemini 접속 정보
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient generateContent 클라이언트
type GeminiClient struct {
	config     GeminiConfig
	httpClient *http.Client
}

// NewGeminiClient Gemini 클라이언트 생성
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GeminiClient{
		config:     cfg,
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

func (c *GeminiClient) Name() string { return ProviderGemini }

func (c *GeminiClient) HasAPIKey() bool { return c.config.APIKey != "" }

var geminiHarmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// SafetyThreshold 안전 수준별 Gemini 차단 임계값
func SafetyThreshold(s Safety) string {
	switch s {
	case SafetyLow:
		return "BLOCK_ONLY_HIGH"
	case SafetyNone:
		return "BLOCK_NONE"
	default:
		return "BLOCK_MEDIUM_AND_ABOVE"
	}
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	SafetySettings   []geminiSafetySetting   `json:"safetySettings"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason   string `json:"blockReason"`
		SafetyRatings []struct {
			Category    string `json:"category"`
			Probability string `json:"probability"`
			Blocked     bool   `json:"blocked"`
		} `json:"safetyRatings"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *struct {
		TotalTokenCount int64 `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate generateContent 호출
// 시스템 프롬프트는 사용자 프롬프트 앞에 합쳐서 전송, 출력 토큰 상한은 걸지 않음
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if !c.HasAPIKey() {
		return nil, notConfigured(ProviderGemini)
	}

	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	threshold := SafetyThreshold(req.Safety)
	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	for _, category := range geminiHarmCategories {
		payload.SafetySettings = append(payload.SafetySettings, geminiSafetySetting{Category: category, Threshold: threshold})
	}
	if req.Temperature > 0 || req.JSON {
		gc := &geminiGenerationConfig{}
		if req.Temperature > 0 {
			t := req.Temperature
			gc.Temperature = &t
		}
		if req.JSON {
			gc.ResponseMimeType = "application/json"
		}
		payload.GenerationConfig = gc
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.config.BaseURL, url.PathEscape(req.Model), url.QueryEscape(c.config.APIKey))

	status, body, err := postJSON(ctx, c.httpClient, ProviderGemini, endpoint, nil, payload)
	if err != nil {
		return nil, err
	}

	var resp geminiResponse
	decodeErr := json.Unmarshal(body, &resp)

	if status != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && resp.Error != nil {
			msg = resp.Error.Message
		}
		return nil, classifyStatus(ProviderGemini, status, msg)
	}
	if decodeErr != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Class: ClassPermanent, Reason: ReasonDecodeResponse, Message: decodeErr.Error(), Err: decodeErr}
	}

	text := ""
	for _, cand := range resp.Candidates {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		if t := strings.TrimSpace(sb.String()); t != "" {
			text = t
			break
		}
	}
	if text == "" {
		return nil, &ProviderError{
			Provider:   ProviderGemini,
			Class:      ClassPermanent,
			StatusCode: status,
			Reason:     ReasonPolicyBlock,
			Message:    blockReason(&resp),
		}
	}

	res := &Result{Text: text, Model: req.Model, Provider: ProviderGemini}
	if resp.UsageMetadata != nil {
		res.TotalTokens = resp.UsageMetadata.TotalTokenCount
	}
	return res, nil
}

func blockReason(resp *geminiResponse) string {
	if resp.PromptFeedback == nil || resp.PromptFeedback.BlockReason == "" {
		return "no candidates returned"
	}
	reason := "blocked: " + resp.PromptFeedback.BlockReason
	var details []string
	for _, r := range resp.PromptFeedback.SafetyRatings {
		if r.Blocked {
			details = append(details, r.Category+": "+r.Probability)
		}
	}
	if len(details) > 0 {
		reason += " (" + strings.Join(details, ", ") + ")"
	}
	return reason
}
