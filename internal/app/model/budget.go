package model

import (
	"time"
)

// BudgetLedgerEntry 일자별 AI 사용량 원장
// cap 은 설정값이며 누적되지 않는다
type BudgetLedgerEntry struct {
	Date           string    `gorm:"primaryKey;type:varchar(10)" json:"date"`
	TokenUsed      int64     `gorm:"not null;default:0" json:"token_used"`
	USDSpent       float64   `gorm:"not null;default:0" json:"usd_spent"`
	ReservedUSD    float64   `gorm:"not null;default:0" json:"reserved_usd"`
	ReservedTokens int64     `gorm:"not null;default:0" json:"reserved_tokens"`
	OverageUSD     float64   `gorm:"not null;default:0" json:"overage_usd"`
	Cap            float64   `gorm:"not null" json:"cap"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (BudgetLedgerEntry) TableName() string {
	return "budget_ledger"
}

// Remaining 남은 한도 (예약분 포함 차감)
func (e *BudgetLedgerEntry) Remaining() float64 {
	r := e.Cap - e.USDSpent - e.ReservedUSD
	if r < 0 {
		return 0
	}
	return r
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationCommitted ReservationStatus = "committed"
	ReservationReleased  ReservationStatus = "released"
)

// BudgetReservation 호출 전 선점한 예산
type BudgetReservation struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Date            string            `gorm:"type:varchar(10);not null;index" json:"date"`
	Purpose         string            `gorm:"type:varchar(32)" json:"purpose"`
	Model           string            `gorm:"type:varchar(64)" json:"model"`
	EstimatedTokens int64             `json:"estimated_tokens"`
	EstimatedUSD    float64           `json:"estimated_usd"`
	ActualTokens    int64             `json:"actual_tokens"`
	ActualUSD       float64           `json:"actual_usd"`
	Status          ReservationStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	SettledAt       *time.Time        `json:"settled_at,omitempty"`
}

func (BudgetReservation) TableName() string {
	return "budget_reservations"
}
