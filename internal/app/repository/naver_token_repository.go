package repository

import (
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

type NaverTokenRepository interface {
	Create(token *model.NaverToken) error
	Latest() (*model.NaverToken, error)
}

type naverTokenRepository struct {
	db *gorm.DB
}

func NewNaverTokenRepository(db *gorm.DB) NaverTokenRepository {
	return &naverTokenRepository{db: db}
}

func (r *naverTokenRepository) Create(token *model.NaverToken) error {
	if err := r.db.Create(token).Error; err != nil {
		logger.Error("Failed to store naver token", err)
		return err
	}
	return nil
}

// Latest 가장 최근에 저장된 토큰 (없으면 gorm.ErrRecordNotFound)
func (r *naverTokenRepository) Latest() (*model.NaverToken, error) {
	var token model.NaverToken
	if err := r.db.Order("id DESC").First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}
