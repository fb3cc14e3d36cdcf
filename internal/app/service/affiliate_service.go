package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

// MapAffiliateInput 사람이 입력한 제휴 링크
type MapAffiliateInput struct {
	ProductID uint
	URL       string
	HTML      string
	MappedBy  string
}

// AffiliateService 제휴 링크가 붙기 전까지 후보를 글 작성에서 막는 게이트
type AffiliateService interface {
	Map(ctx context.Context, input MapAffiliateInput) (*model.ProductCandidate, error)
	Pending(limit int) ([]model.ProductCandidate, error)
}

type affiliateService struct {
	productRepo repository.ProductRepository
	publisher   events.Publisher
	metrics     *metrics.PipelineMetrics
	now         func() time.Time
}

func NewAffiliateService(productRepo repository.ProductRepository, publisher events.Publisher, m *metrics.PipelineMetrics) AffiliateService {
	return &affiliateService{
		productRepo: productRepo,
		publisher:   publisher,
		metrics:     m,
		now:         time.Now,
	}
}

// Map 링크를 붙이고 mapped 로 전환, 다시 호출하면 마지막 값으로 덮어쓴다
func (s *affiliateService) Map(ctx context.Context, input MapAffiliateInput) (*model.ProductCandidate, error) {
	link := strings.TrimSpace(input.URL)
	if link == "" {
		verr := newValidationError(ErrEmptyAffiliateURL, "affiliate_url", "affiliate url must not be empty")
		verr.ProductID = input.ProductID
		return nil, verr
	}
	if u, err := url.Parse(link); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		verr := newValidationError(ErrEmptyAffiliateURL, "affiliate_url", "affiliate url must be an absolute http(s) url")
		verr.ProductID = input.ProductID
		return nil, verr
	}

	mappedBy := strings.TrimSpace(input.MappedBy)
	if mappedBy == "" {
		mappedBy = "admin"
	}

	err := s.productRepo.UpdateMapping(input.ProductID, repository.AffiliateMapping{
		URL:      link,
		HTML:     strings.TrimSpace(input.HTML),
		MappedBy: mappedBy,
		MappedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot map affiliate link: product not found", map[string]interface{}{
				"product_id": input.ProductID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	product, err := s.productRepo.FindByID(input.ProductID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAffiliateMapped()
	events.Emit(ctx, s.publisher, events.New(events.AffiliateMapped, fmt.Sprintf("product:%d", product.ID), map[string]interface{}{
		"keyword_id": product.KeywordID,
		"mapped_by":  mappedBy,
	}))

	logger.Info("Affiliate link mapped", map[string]interface{}{
		"product_id": product.ID,
		"mapped_by":  mappedBy,
		"has_html":   product.AffiliateHTML != "",
	})
	return product, nil
}

// Pending 아직 링크가 없는 후보 (최신순)
func (s *affiliateService) Pending(limit int) ([]model.ProductCandidate, error) {
	status := model.ProductStatusCandidate
	return s.productRepo.FindWithFilter(repository.ProductFilter{Status: &status, Limit: limit})
}
