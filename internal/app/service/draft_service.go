package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/prompt"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/pkg/coupang"
	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	maxCompareProducts = 4
	maxAllowedNames    = 5
	maxSources         = 4
	writerTemperature  = 0.8
)

// SpecFetcher 상품 페이지 스펙 조회 (coupang.Scraper)
type SpecFetcher interface {
	FetchSpecs(ctx context.Context, productURL string) (*coupang.ProductSpecs, error)
}

type DraftRequest struct {
	ProductID     uint
	TemplateType  model.TemplateType
	TemplateInput map[string]interface{}
}

type CompareDraftRequest struct {
	ProductIDs    []uint
	TemplateInput map[string]interface{}
}

// DraftService 매핑된 상품으로 템플릿 프롬프트를 만들어 writer 모델로 초안 생성
type DraftService interface {
	Draft(ctx context.Context, req DraftRequest) (*model.Post, error)
	DraftCompare(ctx context.Context, req CompareDraftRequest) (*model.Post, error)
}

type draftService struct {
	productRepo repository.ProductRepository
	keywordRepo repository.KeywordRepository
	postRepo    repository.PostRepository
	ai          AIService
	specs       SpecFetcher
	maxTokens   int
	publisher   events.Publisher
	metrics     *metrics.PipelineMetrics
}

// NewDraftService specs 가 nil 이면 스펙표 보강을 건너뛴다
func NewDraftService(
	productRepo repository.ProductRepository,
	keywordRepo repository.KeywordRepository,
	postRepo repository.PostRepository,
	ai AIService,
	specs SpecFetcher,
	maxTokens int,
	publisher events.Publisher,
	m *metrics.PipelineMetrics,
) DraftService {
	return &draftService{
		productRepo: productRepo,
		keywordRepo: keywordRepo,
		postRepo:    postRepo,
		ai:          ai,
		specs:       specs,
		maxTokens:   maxTokens,
		publisher:   publisher,
		metrics:     m,
	}
}

// composition 검증을 마친 생성 요청
type composition struct {
	template  model.TemplateType
	compare   bool
	products  []model.ProductCandidate
	keyword   string
	keywordID *uint
	input     prompt.Input
	userMsg   string
	analysis  *Generation
}

func (s *draftService) Draft(ctx context.Context, req DraftRequest) (*model.Post, error) {
	templateType := req.TemplateType
	if strings.TrimSpace(string(templateType)) == "" {
		templateType = model.TemplateReview
	}
	tpl, err := prompt.Lookup(templateType)
	if err != nil {
		return nil, newValidationError(ErrInvalidTemplate, "template_type", err.Error())
	}

	products, err := s.loadMapped([]uint{req.ProductID})
	if err != nil {
		return nil, err
	}
	product := products[0]
	keywordID := product.KeywordID
	keyword := s.keywordText(keywordID)

	base := prompt.Merge(
		prompt.Input{
			prompt.FieldKeyword:      keyword,
			prompt.FieldProductName:  product.DisplayName(),
			prompt.FieldPriceBand:    product.PriceBand,
			prompt.FieldAffiliateURL: product.AffiliateURL,
		},
		allowedNamesInput(products),
	)
	overrides := prompt.Merge(
		prompt.Input(req.TemplateInput),
		prompt.Input{prompt.FieldAffiliateURL: product.AffiliateURL},
	)
	if err := tpl.Validate(prompt.Merge(base, overrides)); err != nil {
		return nil, templateValidationError(err)
	}

	// 분석 결과는 요청 입력보다 우선순위가 낮다
	aligned, analysis, err := s.analyze(ctx, product, keyword)
	if err != nil {
		return nil, err
	}
	input := prompt.Merge(base, aligned, overrides)

	if specs := s.fetchSpecs(ctx, product.AffiliateURL); specs != nil && len(specs.Specs) > 0 {
		enrich := prompt.Input{
			prompt.FieldSpecTable: coupang.BuildSpecTable([]coupang.SpecRow{{
				Name:    product.DisplayName(),
				Specs:   specs.Specs,
				Feature: product.Why,
			}}, nil),
		}
		if specs.SourceURL != "" {
			enrich[prompt.FieldSources] = []string{specs.SourceURL}
		}
		input = prompt.Merge(input, enrich)
	}

	return s.generate(ctx, &composition{
		template:  tpl.Type(),
		products:  products,
		keyword:   keyword,
		keywordID: &keywordID,
		input:     input,
		userMsg:   tpl.Build(input),
		analysis:  analysis,
	})
}

// DraftCompare 앞에서부터 서로 다른 최대 4개 상품을 비교 가이드형(B)으로 작성
func (s *draftService) DraftCompare(ctx context.Context, req CompareDraftRequest) (*model.Post, error) {
	ids := distinctIDs(req.ProductIDs, maxCompareProducts)
	if len(ids) < 2 {
		return nil, newValidationError(ErrCompareMinimum, "product_ids",
			fmt.Sprintf("got %d distinct product id(s)", len(ids)))
	}

	products, err := s.loadMapped(ids)
	if err != nil {
		return nil, err
	}
	primary := products[0]
	keywordID := primary.KeywordID
	keyword := s.keywordText(keywordID)

	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.DisplayName()
	}

	input := prompt.Merge(
		prompt.Input{
			prompt.FieldKeyword:      keyword,
			prompt.FieldProductName:  primary.DisplayName(),
			prompt.FieldPriceBand:    primary.PriceBand,
			prompt.FieldAffiliateURL: primary.AffiliateURL,
		},
		allowedNamesInput(products),
		prompt.Input(req.TemplateInput),
		prompt.Input{prompt.FieldItems: names, prompt.FieldAffiliateURL: primary.AffiliateURL},
	)
	tpl, err := prompt.Lookup(model.TemplateComparison)
	if err != nil {
		return nil, err
	}
	if err := tpl.Validate(input); err != nil {
		return nil, templateValidationError(err)
	}

	rows := make([]coupang.SpecRow, len(products))
	sources := mapset.NewThreadUnsafeSet[string]()
	var orderedSources []string
	for i, p := range products {
		rows[i] = coupang.SpecRow{Name: names[i], Feature: p.Why}
		if specs := s.fetchSpecs(ctx, p.AffiliateURL); specs != nil {
			rows[i].Specs = specs.Specs
			if specs.SourceURL != "" && len(orderedSources) < maxSources && sources.Add(specs.SourceURL) {
				orderedSources = append(orderedSources, specs.SourceURL)
			}
		}
	}
	enrich := prompt.Input{prompt.FieldSpecTable: coupang.BuildSpecTable(rows, nil)}
	if len(orderedSources) > 0 {
		enrich[prompt.FieldSources] = orderedSources
	}
	input = prompt.Merge(input, enrich)

	return s.generate(ctx, &composition{
		template:  model.TemplateComparison,
		compare:   true,
		products:  products,
		keyword:   keyword,
		keywordID: &keywordID,
		input:     input,
		userMsg:   tpl.Build(input),
	})
}

// loadMapped 모든 상품이 존재하고 mapped 인지 확인 (부수 효과 없음)
func (s *draftService) loadMapped(ids []uint) ([]model.ProductCandidate, error) {
	found, err := s.productRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.ProductCandidate, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	products := make([]model.ProductCandidate, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		if !p.IsMapped() {
			logger.Warn("Draft rejected: product not mapped", map[string]interface{}{
				"product_id": id,
				"status":     p.Status,
			})
			return nil, &ValidationError{
				Field:     "product_id",
				Reason:    "affiliate link is not mapped",
				ProductID: id,
				Err:       ErrMappingRequired,
			}
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *draftService) keywordText(id uint) string {
	keyword, err := s.keywordRepo.FindByID(id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Failed to load keyword for draft", map[string]interface{}{
				"keyword_id": id,
				"error":      err.Error(),
			})
		}
		return ""
	}
	return keyword.Text
}

// fetchSpecs 쿠팡 링크일 때만 best-effort 스크래핑 (실패는 무시)
func (s *draftService) fetchSpecs(ctx context.Context, affiliateURL string) *coupang.ProductSpecs {
	if s.specs == nil || !coupang.IsCoupangURL(affiliateURL) {
		return nil
	}
	specs, err := s.specs.FetchSpecs(ctx, affiliateURL)
	if err != nil {
		logger.Debug("Spec enrichment skipped", map[string]interface{}{
			"url":   affiliateURL,
			"error": err.Error(),
		})
		return nil
	}
	return specs
}

func (s *draftService) generate(ctx context.Context, c *composition) (*model.Post, error) {
	primary := c.products[0]

	gen, err := s.ai.Generate(ctx, GenerateRequest{
		Purpose:     "draft",
		Size:        llm.SizeWriter,
		System:      prompt.WriterSystem(primary.AffiliateURL),
		Prompt:      c.userMsg,
		MaxTokens:   s.maxTokens,
		Temperature: writerTemperature,
	})
	if err != nil {
		return nil, err
	}

	tokens, cost := gen.TokensUsed, gen.CostUSD
	if c.analysis != nil {
		tokens += c.analysis.TokensUsed
		cost += c.analysis.CostUSD
	}

	body := formatDraftBody(gen.Text, primary.AffiliateURL)
	if needsAlignment(body, c.input) {
		logger.Info("Draft misaligned with product, rewriting once", map[string]interface{}{
			"template": c.template,
			"enforce":  c.input.String(prompt.FieldEnforceName, ""),
		})
		if re := s.rewrite(ctx, c, body); re != nil {
			body = formatDraftBody(re.Text, primary.AffiliateURL)
			tokens += re.TokensUsed
			cost += re.CostUSD
		}
	}
	body = appendAffiliateHTML(body, primary.AffiliateHTML)

	post := &model.Post{
		KeywordID:     c.keywordID,
		TemplateType:  c.template,
		TemplateInput: map[string]interface{}(c.input),
		CompareMode:   c.compare,
		Title:         extractTitle(body, c.keyword),
		BodyMD:        body,
		Tags:          strings.Join(draftTags(c.keyword), ","),
		Status:        model.PostStatusDraft,
		Provider:      gen.Provider,
		Model:         gen.Model,
		TokensUsed:    tokens,
		CostUSD:       cost,
	}
	for i, p := range c.products {
		post.Products = append(post.Products, model.PostProduct{ProductID: p.ID, Position: i})
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}

	s.metrics.RecordDraft(string(c.template), c.compare)
	events.Emit(ctx, s.publisher, events.New(events.PostDrafted, fmt.Sprintf("post:%d", post.ID), map[string]interface{}{
		"template":    c.template,
		"compare":     c.compare,
		"product_ids": post.ProductIDs,
		"cost_usd":    cost,
	}))

	logger.Info("Draft created", map[string]interface{}{
		"post_id":  post.ID,
		"template": c.template,
		"compare":  c.compare,
		"products": len(c.products),
		"tokens":   tokens,
	})
	return post, nil
}

// distinctIDs 순서를 유지한 중복 제거 (0 제외, 최대 limit 개)
func distinctIDs(ids []uint, limit int) []uint {
	seen := mapset.NewThreadUnsafeSet[uint]()
	out := make([]uint, 0, limit)
	for _, id := range ids {
		if id == 0 || !seen.Add(id) {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

// allowedNamesInput 제휴 HTML 의 alt 텍스트를 본문 허용 모델명으로 사용
func allowedNamesInput(products []model.ProductCandidate) prompt.Input {
	seen := mapset.NewThreadUnsafeSet[string]()
	var names []string
	for _, p := range products {
		for _, n := range coupang.AltNames(p.AffiliateHTML, maxAllowedNames) {
			if len(names) < maxAllowedNames && seen.Add(n) {
				names = append(names, n)
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	return prompt.Input{prompt.FieldAllowedNames: names}
}

func templateValidationError(err error) error {
	var fe *prompt.FieldError
	if errors.As(err, &fe) {
		return newValidationError(ErrInvalidTemplate, fe.Field, fe.Error())
	}
	return newValidationError(ErrInvalidTemplate, "template_input", err.Error())
}
