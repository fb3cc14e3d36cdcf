package model

import "time"

// NaverToken 블로그 발행용 OAuth 토큰 (가장 최근 행을 사용)
type NaverToken struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	TokenType    string     `gorm:"type:varchar(32)" json:"token_type"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (NaverToken) TableName() string {
	return "naver_tokens"
}

// Valid 만료 전 토큰인지 확인
func (t *NaverToken) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.ExpiresAt == nil || now.Before(*t.ExpiresAt)
}
