package model

import "time"

// AppConfig 런타임 설정 key/value 저장소 (AI 공급자, 모델, 안전 수준)
type AppConfig struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AppConfig) TableName() string {
	return "app_configs"
}
