package model

import (
	"time"
)

type KeywordStatus string

const (
	KeywordCollected KeywordStatus = "collected"
)

// IngestionDateLayout 수집일 문자열 형식
const IngestionDateLayout = "2006-01-02"

// Keyword 트렌드 소스에서 수집한 검색 키워드
// (text, ingestion_date) 조합은 dedup 이후 한 행만 남는다
type Keyword struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	Text          string        `gorm:"type:varchar(255);not null;index:idx_keywords_date_text,priority:2" json:"text"`
	Score         float64       `json:"score"`
	Category      string        `gorm:"type:varchar(64)" json:"category"`
	Status        KeywordStatus `gorm:"type:varchar(32);default:'collected'" json:"status"`
	IngestionDate string        `gorm:"type:varchar(10);not null;index:idx_keywords_date_text,priority:1" json:"ingestion_date"`
	FetchedAt     time.Time     `gorm:"not null" json:"fetched_at"`
	CreatedAt     time.Time     `json:"created_at"`

	Candidates []ProductCandidate `gorm:"foreignKey:KeywordID" json:"-"`
}

func (Keyword) TableName() string {
	return "keywords"
}
