package repository

import (
	"time"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BudgetRepository 예산 원장과 예약 행 접근
// 잠금 조회(Lock*)는 트랜잭션(WithTx) 안에서만 의미가 있다
type BudgetRepository interface {
	WithTx(tx *gorm.DB) BudgetRepository
	EnsureEntry(date string, cap float64) error
	LockEntry(date string) (*model.BudgetLedgerEntry, error)
	FindEntry(date string) (*model.BudgetLedgerEntry, error)
	SaveEntry(entry *model.BudgetLedgerEntry) error
	ListEntries(from, to string) ([]model.BudgetLedgerEntry, error)
	MonthTotals(month string) (spent, reserved float64, err error)
	CreateReservation(res *model.BudgetReservation) error
	LockReservation(id string) (*model.BudgetReservation, error)
	SaveReservation(res *model.BudgetReservation) error
	FindStaleReservations(before time.Time, limit int) ([]model.BudgetReservation, error)
}

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) WithTx(tx *gorm.DB) BudgetRepository {
	return &budgetRepository{db: tx}
}

// EnsureEntry 해당 일자 원장 행이 없으면 생성 (있으면 그대로 둔다)
func (r *budgetRepository) EnsureEntry(date string, cap float64) error {
	entry := model.BudgetLedgerEntry{Date: date, Cap: cap}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		logger.Error("Failed to ensure budget ledger entry", err, map[string]interface{}{
			"date": date,
		})
		return err
	}
	return nil
}

func (r *budgetRepository) LockEntry(date string) (*model.BudgetLedgerEntry, error) {
	var entry model.BudgetLedgerEntry
	if err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date = ?", date).
		First(&entry).Error; err != nil {
		logger.Error("Failed to lock budget ledger entry", err, map[string]interface{}{
			"date": date,
		})
		return nil, err
	}
	return &entry, nil
}

func (r *budgetRepository) FindEntry(date string) (*model.BudgetLedgerEntry, error) {
	var entry model.BudgetLedgerEntry
	if err := r.db.Where("date = ?", date).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *budgetRepository) SaveEntry(entry *model.BudgetLedgerEntry) error {
	if err := r.db.Save(entry).Error; err != nil {
		logger.Error("Failed to save budget ledger entry", err, map[string]interface{}{
			"date": entry.Date,
		})
		return err
	}
	return nil
}

// ListEntries from~to (YYYY-MM-DD, 양끝 포함) 최신 일자 순
func (r *budgetRepository) ListEntries(from, to string) ([]model.BudgetLedgerEntry, error) {
	var entries []model.BudgetLedgerEntry
	err := r.db.
		Where("date >= ? AND date <= ?", from, to).
		Order("date DESC").
		Find(&entries).Error
	if err != nil {
		logger.Error("Failed to list budget ledger entries", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return nil, err
	}
	return entries, nil
}

// MonthTotals 월(YYYY-MM) 확정 사용액과 예약액 합계
func (r *budgetRepository) MonthTotals(month string) (spent, reserved float64, err error) {
	var row struct {
		Spent    float64
		Reserved float64
	}
	err = r.db.Model(&model.BudgetLedgerEntry{}).
		Select("COALESCE(SUM(usd_spent), 0) AS spent, COALESCE(SUM(reserved_usd), 0) AS reserved").
		Where("date LIKE ?", month+"-%").
		Scan(&row).Error
	if err != nil {
		logger.Error("Failed to sum monthly budget", err, map[string]interface{}{
			"month": month,
		})
		return 0, 0, err
	}
	return row.Spent, row.Reserved, nil
}

func (r *budgetRepository) CreateReservation(res *model.BudgetReservation) error {
	if err := r.db.Create(res).Error; err != nil {
		logger.Error("Failed to create budget reservation", err, map[string]interface{}{
			"reservation_id": res.ID,
			"date":           res.Date,
		})
		return err
	}
	return nil
}

func (r *budgetRepository) LockReservation(id string) (*model.BudgetReservation, error) {
	var res model.BudgetReservation
	if err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *budgetRepository) SaveReservation(res *model.BudgetReservation) error {
	if err := r.db.Save(res).Error; err != nil {
		logger.Error("Failed to save budget reservation", err, map[string]interface{}{
			"reservation_id": res.ID,
			"status":         res.Status,
		})
		return err
	}
	return nil
}

// FindStaleReservations before 이전에 만들어져 아직 pending 인 예약
func (r *budgetRepository) FindStaleReservations(before time.Time, limit int) ([]model.BudgetReservation, error) {
	query := r.db.
		Where("status = ? AND created_at < ?", model.ReservationPending, before).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reservations []model.BudgetReservation
	if err := query.Find(&reservations).Error; err != nil {
		logger.Error("Failed to find stale reservations", err, map[string]interface{}{
			"before": before,
		})
		return nil, err
	}
	return reservations, nil
}
