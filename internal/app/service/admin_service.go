package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/db"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"github.com/ikkim/coupang-partners-backend/pkg/redis"
	"gorm.io/gorm"
)

// LoginURLProvider 블로그 OAuth 로그인 URL (naver.Client)
type LoginURLProvider interface {
	LoginURL(state string) string
}

// NaverTokenInput 운영자가 직접 넣는 토큰
type NaverTokenInput struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type NaverStatus struct {
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type AdminService interface {
	ResetDB(ctx context.Context) error
	DeleteKeywords(ctx context.Context, date string) (*repository.DeleteStats, error)
	DedupKeywords(ctx context.Context, date string) (int64, error)
	GetAIConfig() AISettings
	UpdateAIConfig(update AISettingsUpdate) (AISettings, error)
	StoreNaverToken(input NaverTokenInput) (*NaverStatus, error)
	NaverStatus() (*NaverStatus, error)
	NaverLoginURL() (string, error)
}

type adminService struct {
	conn        *gorm.DB
	keywordRepo repository.KeywordRepository
	tokenRepo   repository.NaverTokenRepository
	keywords    KeywordService
	aiConfig    AIConfigService
	login       LoginURLProvider
	locker      redis.Locker
	now         func() time.Time
}

// NewAdminService login 이 nil 이면 로그인 URL 을 제공하지 않음
func NewAdminService(
	conn *gorm.DB,
	keywordRepo repository.KeywordRepository,
	tokenRepo repository.NaverTokenRepository,
	keywords KeywordService,
	aiConfig AIConfigService,
	login LoginURLProvider,
	locker redis.Locker,
) AdminService {
	if locker == nil {
		locker = redis.NewLocalLocker()
	}
	return &adminService{
		conn:        conn,
		keywordRepo: keywordRepo,
		tokenRepo:   tokenRepo,
		keywords:    keywords,
		aiConfig:    aiConfig,
		login:       login,
		locker:      locker,
		now:         time.Now,
	}
}

// ResetDB 모든 테이블을 다시 만들고 AI 설정을 기본값으로 되돌린다
func (s *adminService) ResetDB(ctx context.Context) error {
	logger.Warn("Resetting database")

	if err := db.ResetSchema(s.conn.WithContext(ctx)); err != nil {
		logger.Error("Failed to reset database", err)
		return err
	}
	if err := s.aiConfig.Load(); err != nil {
		return err
	}

	logger.Info("Database reset completed")
	return nil
}

// DeleteKeywords date 가 비면 전체 삭제, 딸린 후보/글도 함께 삭제
func (s *adminService) DeleteKeywords(ctx context.Context, date string) (*repository.DeleteStats, error) {
	date = strings.TrimSpace(date)
	key := "all"
	if date != "" {
		if _, err := time.Parse(model.IngestionDateLayout, date); err != nil {
			return nil, newValidationError(ErrInvalidDate, "date", fmt.Sprintf("%q is not YYYY-MM-DD", date))
		}
		key = date
	}

	unlock, err := s.locker.Lock(ctx, keywordsLockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx := s.conn.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	stats, err := s.keywordRepo.WithTx(tx).DeleteCascade(date)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Keywords deleted", map[string]interface{}{
		"date":       key,
		"keywords":   stats.Keywords,
		"candidates": stats.Candidates,
		"posts":      stats.Posts,
	})
	return stats, nil
}

func (s *adminService) DedupKeywords(ctx context.Context, date string) (int64, error) {
	return s.keywords.Dedup(ctx, date)
}

func (s *adminService) GetAIConfig() AISettings {
	return s.aiConfig.Get()
}

func (s *adminService) UpdateAIConfig(update AISettingsUpdate) (AISettings, error) {
	return s.aiConfig.Update(update)
}

func (s *adminService) StoreNaverToken(input NaverTokenInput) (*NaverStatus, error) {
	accessToken := strings.TrimSpace(input.AccessToken)
	if accessToken == "" {
		return nil, newValidationError(ErrBlogNotConnected, "access_token", "access_token is required")
	}

	token := &model.NaverToken{
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(input.RefreshToken),
		TokenType:    input.TokenType,
	}
	if token.TokenType == "" {
		token.TokenType = "bearer"
	}
	if input.ExpiresIn > 0 {
		expires := s.now().UTC().Add(time.Duration(input.ExpiresIn) * time.Second)
		token.ExpiresAt = &expires
	}

	if err := s.tokenRepo.Create(token); err != nil {
		return nil, err
	}

	logger.Info("Naver token stored", map[string]interface{}{
		"token_id":   token.ID,
		"expires_at": token.ExpiresAt,
	})
	return &NaverStatus{Connected: true, ExpiresAt: token.ExpiresAt}, nil
}

func (s *adminService) NaverStatus() (*NaverStatus, error) {
	token, err := s.tokenRepo.Latest()
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NaverStatus{}, nil
		}
		return nil, err
	}
	return &NaverStatus{Connected: token.Valid(s.now()), ExpiresAt: token.ExpiresAt}, nil
}

// NaverLoginURL 매 호출마다 새 state
func (s *adminService) NaverLoginURL() (string, error) {
	if s.login == nil {
		return "", ErrBlogNotConnected
	}
	return s.login.LoginURL(uuid.NewString()), nil
}
