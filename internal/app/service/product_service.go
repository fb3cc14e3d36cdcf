package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

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
	recommendTemperature = 0.3
	repairInputLimit     = 6000
)

// TopProductFinder 검색어로 쿠팡 첫 상품 URL 조회 (coupang.Scraper)
type TopProductFinder interface {
	TopProductURL(ctx context.Context, query string) (string, error)
}

type ProductListOptions struct {
	KeywordID *uint
	Status    *model.ProductStatus
	Limit     int
}

type ProductService interface {
	Recommend(ctx context.Context, keywordID uint) ([]model.ProductCandidate, error)
	GetProductByID(id uint) (*model.ProductCandidate, error)
	ListProducts(opts ProductListOptions) ([]model.ProductCandidate, error)
}

type productService struct {
	productRepo repository.ProductRepository
	keywordRepo repository.KeywordRepository
	ai          AIService
	finder      TopProductFinder
	maxTokens   int
	publisher   events.Publisher
	metrics     *metrics.PipelineMetrics
}

// NewProductService finder 가 nil 이면 검색 URL 로 대체
func NewProductService(
	productRepo repository.ProductRepository,
	keywordRepo repository.KeywordRepository,
	ai AIService,
	finder TopProductFinder,
	maxTokens int,
	publisher events.Publisher,
	m *metrics.PipelineMetrics,
) ProductService {
	return &productService{
		productRepo: productRepo,
		keywordRepo: keywordRepo,
		ai:          ai,
		finder:      finder,
		maxTokens:   maxTokens,
		publisher:   publisher,
		metrics:     m,
	}
}

func (s *productService) GetProductByID(id uint) (*model.ProductCandidate, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product candidate not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(opts ProductListOptions) ([]model.ProductCandidate, error) {
	return s.productRepo.FindWithFilter(repository.ProductFilter{
		KeywordID: opts.KeywordID,
		Status:    opts.Status,
		Limit:     opts.Limit,
	})
}

// Recommend 키워드 하나에 대해 small 모델로 후보를 받아 candidate 상태로 저장
// 예산 초과/공급자 오류/파싱 실패 시 아무것도 저장하지 않는다
func (s *productService) Recommend(ctx context.Context, keywordID uint) ([]model.ProductCandidate, error) {
	keyword, err := s.keywordRepo.FindByID(keywordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeywordNotFound
		}
		return nil, err
	}

	existingKeys, err := s.productRepo.DedupeKeysByKeyword(keyword.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Recommending products", map[string]interface{}{
		"keyword_id":    keyword.ID,
		"keyword":       keyword.Text,
		"existing_keys": len(existingKeys),
	})

	gen, err := s.ai.Generate(ctx, GenerateRequest{
		Purpose:     "recommend",
		Size:        llm.SizeSmall,
		System:      prompt.ScoutSystem,
		Prompt:      prompt.ScoutPrompt(keyword.Text, existingKeys),
		MaxTokens:   s.maxTokens,
		Temperature: recommendTemperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	items := parseItemsLoose(gen.Text)
	if len(items) == 0 {
		items, err = s.repair(ctx, gen.Text)
		if err != nil {
			return nil, err
		}
	}

	candidates := s.buildCandidates(ctx, keyword, items, existingKeys)
	if len(candidates) == 0 {
		logger.Info("No new product candidates after dedupe", map[string]interface{}{
			"keyword_id": keyword.ID,
			"parsed":     len(items),
		})
		return []model.ProductCandidate{}, nil
	}

	if err := s.productRepo.CreateBatch(candidates); err != nil {
		return nil, err
	}

	s.metrics.RecordCandidates(len(candidates))
	events.Emit(ctx, s.publisher, events.New(events.ProductRecommended, fmt.Sprintf("keyword:%d", keyword.ID), map[string]interface{}{
		"keyword":  keyword.Text,
		"count":    len(candidates),
		"provider": gen.Provider,
		"model":    gen.Model,
	}))

	logger.Info("Product candidates stored", map[string]interface{}{
		"keyword_id": keyword.ID,
		"count":      len(candidates),
		"tokens":     gen.TokensUsed,
	})
	return candidates, nil
}

// repair 파싱에 실패한 응답을 JSON 으로 다시 정리하도록 한 번 더 요청 (예산 차감됨)
func (s *productService) repair(ctx context.Context, raw string) ([]map[string]interface{}, error) {
	logger.Warn("Failed to parse recommendation JSON, trying repair pass", map[string]interface{}{
		"sample": truncateRunes(raw, 300),
	})

	gen, err := s.ai.Generate(ctx, GenerateRequest{
		Purpose:   "recommend_repair",
		Size:      llm.SizeSmall,
		System:    prompt.RepairSystem,
		Prompt:    prompt.RepairPrompt(truncateRunes(raw, repairInputLimit)),
		MaxTokens: s.maxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}

	items := parseItemsLoose(gen.Text)
	if len(items) == 0 {
		logger.Error("JSON repair failed", ErrUnparseableResponse, map[string]interface{}{
			"sample": truncateRunes(gen.Text, 300),
		})
		return nil, ErrUnparseableResponse
	}
	return items, nil
}

func (s *productService) buildCandidates(ctx context.Context, keyword *model.Keyword, items []map[string]interface{}, existingKeys []string) []model.ProductCandidate {
	seen := mapset.NewThreadUnsafeSet[string](existingKeys...)
	candidates := make([]model.ProductCandidate, 0, len(items))

	for _, item := range items {
		c := model.ProductCandidate{
			KeywordID:  keyword.ID,
			TitleGuess: stringField(item, "title_guess"),
			Brand:      stringField(item, "brand"),
			Model:      stringField(item, "model"),
			PriceBand:  stringField(item, "price_band"),
			Why:        stringField(item, "why"),
			ImageHint:  stringField(item, "image_hint"),
			CoupangURL: stringField(item, "coupang_url"),
			Status:     model.ProductStatusCandidate,
		}
		if c.DisplayName() == "" {
			continue
		}

		c.DedupeKey = dedupeKey(c.Brand, c.Model, keyword.Text)
		if !seen.Add(c.DedupeKey) {
			logger.Debug("Skipping duplicate product candidate", map[string]interface{}{
				"dedupe_key": c.DedupeKey,
			})
			continue
		}

		if c.CoupangURL == "" {
			c.CoupangURL = s.fallbackURL(ctx, c, keyword.Text)
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// fallbackURL 스크래핑이 켜져 있으면 검색 첫 상품, 아니면 검색 결과 URL
func (s *productService) fallbackURL(ctx context.Context, c model.ProductCandidate, keyword string) string {
	if s.finder != nil {
		query := coupang.SearchQuery(c.TitleGuess, c.Brand, c.Model, keyword)
		productURL, err := s.finder.TopProductURL(ctx, query)
		if err != nil {
			logger.Debug("Top product lookup failed", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
		} else if productURL != "" {
			return productURL
		}
	}
	return coupang.BuildSearchURL(c.TitleGuess, c.Brand, c.Model, keyword)
}

// dedupeKey brand-model-keyword 슬러그
func dedupeKey(brand, modelName, keyword string) string {
	return slugify(brand + "-" + modelName + "-" + keyword)
}

func slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
