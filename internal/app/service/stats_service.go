package service

import (
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
)

type PostCounts struct {
	Total     int64 `json:"total"`
	Draft     int64 `json:"draft"`
	Scheduled int64 `json:"scheduled"`
	Published int64 `json:"published"`
}

type ProductCounts struct {
	Candidate int64 `json:"candidate"`
	Mapped    int64 `json:"mapped"`
}

// StatsService 글/상품/예산 상태 조회 (읽기 전용)
type StatsService interface {
	Posts() (*PostCounts, error)
	Products() (*ProductCounts, error)
	Budget(days int) (*BudgetSummary, error)
}

type statsService struct {
	postRepo    repository.PostRepository
	productRepo repository.ProductRepository
	budget      BudgetService
}

func NewStatsService(postRepo repository.PostRepository, productRepo repository.ProductRepository, budget BudgetService) StatsService {
	return &statsService{
		postRepo:    postRepo,
		productRepo: productRepo,
		budget:      budget,
	}
}

func (s *statsService) Posts() (*PostCounts, error) {
	counts, err := s.postRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	result := &PostCounts{
		Draft:     counts[model.PostStatusDraft],
		Scheduled: counts[model.PostStatusScheduled],
		Published: counts[model.PostStatusPublished],
	}
	for _, n := range counts {
		result.Total += n
	}
	return result, nil
}

func (s *statsService) Products() (*ProductCounts, error) {
	counts, err := s.productRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	return &ProductCounts{
		Candidate: counts[model.ProductStatusCandidate],
		Mapped:    counts[model.ProductStatusMapped],
	}, nil
}

func (s *statsService) Budget(days int) (*BudgetSummary, error) {
	return s.budget.Summary(days)
}
