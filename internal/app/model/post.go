package model

import (
	"time"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
)

// CanTransitionTo 상태 전이는 draft → scheduled → published 또는 draft → published 만 허용
// scheduled → scheduled 는 예약 시각 변경
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	switch s {
	case PostStatusDraft:
		return next == PostStatusScheduled || next == PostStatusPublished
	case PostStatusScheduled:
		return next == PostStatusScheduled || next == PostStatusPublished
	default:
		return false
	}
}

type TemplateType string

const (
	TemplateReview     TemplateType = "A" // 실사용 리뷰형
	TemplateComparison TemplateType = "B" // 비교 가이드형
	TemplateCuration   TemplateType = "C" // 리스트·큐레이션형
	TemplateProblem    TemplateType = "D" // 문제 해결형
	TemplateSeasonal   TemplateType = "E" // 시즌/행사 특가형
)

// Post 생성된 블로그 글 (draft/scheduled/published)
type Post struct {
	ID            uint                   `gorm:"primarykey" json:"id"`
	KeywordID     *uint                  `gorm:"index" json:"keyword_id,omitempty"`
	TemplateType  TemplateType           `gorm:"type:varchar(1);not null" json:"template_type"`
	TemplateInput map[string]interface{} `gorm:"serializer:json;type:text" json:"template_input"`
	CompareMode   bool                   `gorm:"default:false" json:"compare_mode"`
	Title         string                 `gorm:"type:varchar(255)" json:"title"`
	BodyMD        string                 `gorm:"type:text" json:"body_md"`
	Tags          string                 `gorm:"type:text" json:"tags"`
	Status        PostStatus             `gorm:"type:varchar(32);not null;default:'draft';index" json:"status"`
	ScheduledAt   *time.Time             `gorm:"index" json:"scheduled_at,omitempty"`
	PublishedAt   *time.Time             `json:"published_at,omitempty"`
	RemotePostID  string                 `gorm:"type:varchar(128)" json:"remote_post_id,omitempty"`
	RemoteURL     string                 `gorm:"type:text" json:"remote_url,omitempty"`
	ArchiveKey    string                 `gorm:"type:varchar(255)" json:"archive_key,omitempty"`
	Provider      string                 `gorm:"type:varchar(32)" json:"provider"`
	Model         string                 `gorm:"type:varchar(64)" json:"model"`
	TokensUsed    int64                  `json:"tokens_used"`
	CostUSD       float64                `json:"cost_usd"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`

	Products   []PostProduct `gorm:"foreignKey:PostID" json:"-"`
	ProductIDs []uint        `gorm:"-" json:"product_ids"`
}

func (Post) TableName() string {
	return "posts"
}

// PostProduct 글이 참조하는 상품 (비교 글은 여러 개, position 순서 유지)
type PostProduct struct {
	PostID    uint `gorm:"primaryKey" json:"post_id"`
	ProductID uint `gorm:"primaryKey;index" json:"product_id"`
	Position  int  `gorm:"not null" json:"position"`
}

func (PostProduct) TableName() string {
	return "post_products"
}

// FillProductIDs Products 관계를 position 순서의 ID 목록으로 변환
func (p *Post) FillProductIDs() {
	ids := make([]uint, len(p.Products))
	for _, pp := range p.Products {
		if pp.Position >= 0 && pp.Position < len(ids) {
			ids[pp.Position] = pp.ProductID
		}
	}
	p.ProductIDs = ids
}
