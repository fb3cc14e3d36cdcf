package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/prompt"
	"github.com/ikkim/coupang-partners-backend/pkg/coupang"
	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

const (
	analyzeMaxTokens   = 800
	analyzeTemperature = 0.2
	rewriteTemperature = 0.7
	maxAlignmentNames  = 8
)

// analyze 제품명 정합성 분석 (small 모델, 예산 차감)
// 예산 초과만 호출자에게 돌려주고 그 외 실패는 기본값으로 대체한다
func (s *draftService) analyze(ctx context.Context, product model.ProductCandidate, keyword string) (prompt.Input, *Generation, error) {
	alts := coupang.AltNames(product.AffiliateHTML, maxAllowedNames)

	gen, err := s.ai.Generate(ctx, GenerateRequest{
		Purpose: "analyze",
		Size:    llm.SizeSmall,
		System:  prompt.AnalyzerSystem,
		Prompt: prompt.AnalyzerPrompt(prompt.AnalyzerHint{
			Brand:        product.Brand,
			Model:        product.Model,
			Title:        product.TitleGuess,
			Keyword:      keyword,
			AffiliateURL: product.AffiliateURL,
			AltNames:     alts,
		}),
		MaxTokens:   analyzeMaxTokens,
		Temperature: analyzeTemperature,
		JSON:        true,
	})
	if err != nil {
		var budgetErr *BudgetExceededError
		if errors.As(err, &budgetErr) {
			return nil, nil, err
		}
		logger.Warn("Alignment analysis failed, using defaults", map[string]interface{}{
			"product_id": product.ID,
			"error":      err.Error(),
		})
		return defaultAlignment(product, keyword, alts), nil, nil
	}

	aligned := parseAlignment(gen.Text)
	if aligned == nil {
		logger.Warn("Alignment response was not a JSON object, using defaults", map[string]interface{}{
			"product_id": product.ID,
			"sample":     truncateRunes(gen.Text, 200),
		})
		return defaultAlignment(product, keyword, alts), gen, nil
	}
	if aligned.String(prompt.FieldEnforceName, "") == "" {
		aligned[prompt.FieldEnforceName] = defaultAlignment(product, keyword, alts)[prompt.FieldEnforceName]
	}
	return aligned, gen, nil
}

// parseAlignment 응답에서 정합성 필드만 추려낸다 (객체가 아니면 nil)
func parseAlignment(text string) prompt.Input {
	text = strings.TrimSpace(text)
	candidates := []string{text, strings.TrimSpace(codeFence.ReplaceAllString(text, "\n"))}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, c := range candidates {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(c), &obj); err != nil {
			continue
		}
		raw := prompt.Input(obj)
		out := prompt.Input{}
		for _, key := range prompt.AlignmentFields {
			switch key {
			case prompt.FieldEnforceName, prompt.FieldCategory:
				if v := strings.TrimSpace(raw.String(key, "")); v != "" {
					out[key] = v
				}
			default:
				if list := raw.List(key); len(list) > 0 {
					out[key] = list
				}
			}
		}
		return out
	}
	return nil
}

// defaultAlignment 분석 실패 시 상품 정보만으로 만든 기본 제약
func defaultAlignment(product model.ProductCandidate, keyword string, alts []string) prompt.Input {
	enforce := product.DisplayName()
	if enforce == "" {
		enforce = strings.TrimSpace(keyword)
	}
	if enforce == "" {
		enforce = "제품"
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var allowed []string
	for _, n := range append([]string{enforce, strings.TrimSpace(product.TitleGuess), strings.TrimSpace(keyword)}, alts...) {
		if n != "" && len(allowed) < maxAlignmentNames && seen.Add(n) {
			allowed = append(allowed, n)
		}
	}

	return prompt.Input{
		prompt.FieldEnforceName:  enforce,
		prompt.FieldAllowedNames: allowed,
		prompt.FieldLinkAnchors:  append([]string(nil), ctaAnchors...),
	}
}

// needsAlignment 강제 제품명이 빠졌거나 허용 목록과 무관한 금지 키워드가 보이면 true
func needsAlignment(body string, in prompt.Input) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}
	enforce := strings.TrimSpace(in.String(prompt.FieldEnforceName, ""))
	if enforce != "" && !strings.Contains(body, enforce) {
		return true
	}

	allowed := in.List(prompt.FieldAllowedNames)
	if enforce != "" {
		allowed = append(allowed, enforce)
	}
	for _, banned := range in.List(prompt.FieldDisallowedBrands) {
		if !strings.Contains(body, banned) {
			continue
		}
		exempt := false
		for _, a := range allowed {
			if strings.Contains(banned, a) || strings.Contains(a, banned) {
				exempt = true
				break
			}
		}
		if !exempt {
			return true
		}
	}
	return false
}

// rewrite 정합성이 어긋난 초안을 writer 모델로 한 번만 다시 쓴다
// 실패하면 nil 을 돌려주고 원래 초안을 유지한다
func (s *draftService) rewrite(ctx context.Context, c *composition, body string) *Generation {
	primary := c.products[0]
	gen, err := s.ai.Generate(ctx, GenerateRequest{
		Purpose: "draft_rewrite",
		Size:    llm.SizeWriter,
		System:  prompt.WriterSystem(primary.AffiliateURL),
		Prompt: prompt.RewritePrompt(body,
			c.input.String(prompt.FieldEnforceName, ""),
			c.input.List(prompt.FieldAllowedNames),
			c.input.List(prompt.FieldDisallowedBrands),
		),
		MaxTokens:   s.maxTokens,
		Temperature: rewriteTemperature,
	})
	if err != nil {
		logger.Warn("Draft rewrite failed, keeping first draft", map[string]interface{}{
			"template": c.template,
			"error":    err.Error(),
		})
		return nil
	}
	return gen
}
