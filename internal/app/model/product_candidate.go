package model

import (
	"strings"
	"time"
)

type ProductStatus string

const (
	ProductStatusCandidate ProductStatus = "candidate"
	ProductStatusMapped    ProductStatus = "mapped"
)

// ProductCandidate 키워드별 추천 상품 후보
// 제휴 링크(affiliate_url)가 붙으면 mapped 상태가 되고 그때부터 글 작성에 사용할 수 있다
type ProductCandidate struct {
	ID         uint          `gorm:"primarykey" json:"id"`
	KeywordID  uint          `gorm:"not null;index" json:"keyword_id"`
	TitleGuess string        `gorm:"type:varchar(255)" json:"title_guess"`
	Brand      string        `gorm:"type:varchar(128)" json:"brand"`
	Model      string        `gorm:"type:varchar(128)" json:"model"`
	PriceBand  string        `gorm:"type:varchar(64)" json:"price_band"`
	Why        string        `gorm:"type:text" json:"why"`
	ImageHint  string        `gorm:"type:varchar(255)" json:"image_hint"`
	CoupangURL string        `gorm:"type:text" json:"coupang_url"`
	DedupeKey  string        `gorm:"type:varchar(255);index" json:"dedupe_key"`
	Status     ProductStatus `gorm:"type:varchar(32);not null;default:'candidate';index" json:"status"`

	// 제휴 매핑 (마지막 매핑이 이전 값을 덮어씀)
	AffiliateURL  string     `gorm:"type:text" json:"affiliate_url,omitempty"`
	AffiliateHTML string     `gorm:"type:text" json:"affiliate_html,omitempty"`
	MappedBy      string     `gorm:"type:varchar(64)" json:"mapped_by,omitempty"`
	MappedAt      *time.Time `json:"mapped_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Keyword *Keyword `gorm:"foreignKey:KeywordID" json:"keyword,omitempty"`
}

func (ProductCandidate) TableName() string {
	return "product_candidates"
}

// IsMapped 글 작성 게이트 통과 여부
func (p *ProductCandidate) IsMapped() bool {
	return p.Status == ProductStatusMapped && strings.TrimSpace(p.AffiliateURL) != ""
}

// DisplayName 본문에 쓸 상품명 (브랜드+모델, 없으면 추정 제목)
func (p *ProductCandidate) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.Brand) + " " + strings.TrimSpace(p.Model))
	if name == "" {
		return strings.TrimSpace(p.TitleGuess)
	}
	return name
}
