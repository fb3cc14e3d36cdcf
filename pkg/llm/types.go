package llm

import (
	"context"
	"fmt"
	"sort"
)

// Size 작업 규모 (small: 추천/랭킹, writer: 본문 작성)
type Size string

const (
	SizeSmall  Size = "small"
	SizeWriter Size = "writer"
)

// Safety 콘텐츠 필터 강도
type Safety string

const (
	SafetyDefault Safety = "default"
	SafetyLow     Safety = "low"
	SafetyNone    Safety = "none"
)

// ParseSafety 알 수 없는 값은 SafetyDefault
func ParseSafety(s string) Safety {
	switch Safety(s) {
	case SafetyLow, SafetyNone:
		return Safety(s)
	default:
		return SafetyDefault
	}
}

// Request 공급자 공통 생성 요청
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int     // 0 이면 공급자 기본값
	Temperature float64 // 0 이면 생략
	JSON        bool    // JSON 응답 강제
	Safety      Safety
}

// Result 생성 결과
type Result struct {
	Text        string
	TotalTokens int64
	Model       string
	Provider    string
}

// Provider AI 공급자 추상화
type Provider interface {
	Name() string
	HasAPIKey() bool
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Models 공급자별 small/writer 모델 이름
type Models struct {
	Small  string
	Writer string
}

// For size에 맞는 모델 이름
func (m Models) For(size Size) string {
	if size == SizeWriter {
		return m.Writer
	}
	return m.Small
}

// Registry 이름으로 공급자를 찾는 레지스트리
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get 등록되지 않은 이름이면 에러
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names 등록된 공급자 이름 (정렬)
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
