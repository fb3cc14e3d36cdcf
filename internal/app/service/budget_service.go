package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

// budgetEpsilon 부동소수 누적 오차 허용치
const budgetEpsilon = 1e-9

const (
	BudgetScopeDaily   = "daily"
	BudgetScopeMonthly = "monthly"
)

// ReserveRequest 예약 요청 (EstimatedUSD 가 0 이면 단가표로 계산)
type ReserveRequest struct {
	Date            string
	Purpose         string
	Model           string
	EstimatedTokens int64
	EstimatedUSD    float64
}

type MonthSummary struct {
	Month    string  `json:"month"`
	USDSpent float64 `json:"usd_spent"`
	Reserved float64 `json:"reserved_usd"`
	Cap      float64 `json:"cap"`
}

type BudgetSummary struct {
	Daily []model.BudgetLedgerEntry `json:"daily"`
	Month MonthSummary              `json:"month"`
}

type BudgetService interface {
	Today() string
	Cost(modelName string, tokens int64) float64
	Reserve(ctx context.Context, req ReserveRequest) (*model.BudgetReservation, error)
	Commit(ctx context.Context, reservationID string, actualTokens int64, actualUSD float64) error
	Release(ctx context.Context, reservationID string) error
	SweepStale(ctx context.Context) (int, error)
	Summary(days int) (*BudgetSummary, error)
}

type budgetService struct {
	budgetRepo repository.BudgetRepository
	db         *gorm.DB
	cfg        config.BudgetConfig
	loc        *time.Location
	publisher  events.Publisher
	metrics    *metrics.PipelineMetrics
	now        func() time.Time
}

func NewBudgetService(
	budgetRepo repository.BudgetRepository,
	db *gorm.DB,
	cfg config.BudgetConfig,
	loc *time.Location,
	publisher events.Publisher,
	m *metrics.PipelineMetrics,
) BudgetService {
	if loc == nil {
		loc = time.UTC
	}
	return &budgetService{
		budgetRepo: budgetRepo,
		db:         db,
		cfg:        cfg,
		loc:        loc,
		publisher:  publisher,
		metrics:    m,
		now:        time.Now,
	}
}

// Today 설정 타임존 기준 오늘 (YYYY-MM-DD)
func (s *budgetService) Today() string {
	return s.now().In(s.loc).Format(model.IngestionDateLayout)
}

// Cost 토큰 수와 모델 단가(1K 토큰당 USD)로 비용 계산
func (s *budgetService) Cost(modelName string, tokens int64) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000 * s.cfg.PriceFor(modelName)
}

// Reserve 한도 확인과 예약 반영을 한 트랜잭션에서 원장 행을 잠근 채 수행
// 동시에 들어온 예약은 행 잠금으로 직렬화된다
func (s *budgetService) Reserve(ctx context.Context, req ReserveRequest) (*model.BudgetReservation, error) {
	if req.Date == "" {
		req.Date = s.Today()
	}
	if _, err := time.Parse(model.IngestionDateLayout, req.Date); err != nil {
		return nil, newValidationError(ErrInvalidDate, "date", "date must be YYYY-MM-DD")
	}
	if req.EstimatedUSD <= 0 {
		req.EstimatedUSD = s.Cost(req.Model, req.EstimatedTokens)
	}

	logger.Debug("Reserving budget", map[string]interface{}{
		"date":          req.Date,
		"purpose":       req.Purpose,
		"model":         req.Model,
		"estimated_usd": req.EstimatedUSD,
	})

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	repo := s.budgetRepo.WithTx(tx)
	if err := repo.EnsureEntry(req.Date, s.cfg.DailyCapUSD); err != nil {
		tx.Rollback()
		return nil, err
	}

	entry, err := repo.LockEntry(req.Date)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	entry.Cap = s.cfg.DailyCapUSD

	if entry.USDSpent+entry.ReservedUSD+req.EstimatedUSD > entry.Cap+budgetEpsilon {
		tx.Rollback()
		return nil, s.reject(ctx, &BudgetExceededError{
			Scope:     BudgetScopeDaily,
			Date:      req.Date,
			Cap:       entry.Cap,
			Spent:     entry.USDSpent,
			Reserved:  entry.ReservedUSD,
			Remaining: entry.Remaining(),
			Requested: req.EstimatedUSD,
		})
	}

	if s.cfg.MonthlyCapUSD > 0 {
		month := req.Date[:7]
		spent, reserved, err := repo.MonthTotals(month)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if spent+reserved+req.EstimatedUSD > s.cfg.MonthlyCapUSD+budgetEpsilon {
			tx.Rollback()
			remaining := s.cfg.MonthlyCapUSD - spent - reserved
			if remaining < 0 {
				remaining = 0
			}
			return nil, s.reject(ctx, &BudgetExceededError{
				Scope:     BudgetScopeMonthly,
				Date:      month,
				Cap:       s.cfg.MonthlyCapUSD,
				Spent:     spent,
				Reserved:  reserved,
				Remaining: remaining,
				Requested: req.EstimatedUSD,
			})
		}
	}

	entry.ReservedUSD += req.EstimatedUSD
	entry.ReservedTokens += req.EstimatedTokens
	if err := repo.SaveEntry(entry); err != nil {
		tx.Rollback()
		return nil, err
	}

	reservation := &model.BudgetReservation{
		ID:              uuid.NewString(),
		Date:            req.Date,
		Purpose:         req.Purpose,
		Model:           req.Model,
		EstimatedTokens: req.EstimatedTokens,
		EstimatedUSD:    req.EstimatedUSD,
		Status:          model.ReservationPending,
		CreatedAt:       s.now().UTC(),
	}
	if err := repo.CreateReservation(reservation); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit budget reservation", err, map[string]interface{}{
			"date": req.Date,
		})
		return nil, err
	}

	s.metrics.RecordReservation("accepted")
	logger.Info("Budget reserved", map[string]interface{}{
		"reservation_id": reservation.ID,
		"date":           req.Date,
		"purpose":        req.Purpose,
		"estimated_usd":  req.EstimatedUSD,
		"reserved_usd":   entry.ReservedUSD,
		"usd_spent":      entry.USDSpent,
		"cap":            entry.Cap,
	})
	return reservation, nil
}

func (s *budgetService) reject(ctx context.Context, err *BudgetExceededError) error {
	s.metrics.RecordReservation("rejected")
	logger.Warn("Budget reservation rejected", map[string]interface{}{
		"scope":     err.Scope,
		"date":      err.Date,
		"cap":       err.Cap,
		"spent":     err.Spent,
		"reserved":  err.Reserved,
		"requested": err.Requested,
	})
	events.Emit(ctx, s.publisher, events.New(events.BudgetRejected, err.Date, map[string]interface{}{
		"scope":     err.Scope,
		"cap":       err.Cap,
		"remaining": err.Remaining,
		"requested": err.Requested,
	}))
	return err
}

// Commit 예약을 실제 사용량으로 확정
// 이미 확정된 예약은 무시하고, 만료 정리로 해제된 예약은 실제 사용량만 반영한다
// usd_spent 는 cap 을 넘지 않으며 넘는 부분은 overage_usd 에 쌓인다
func (s *budgetService) Commit(ctx context.Context, reservationID string, actualTokens int64, actualUSD float64) error {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	repo := s.budgetRepo.WithTx(tx)
	reservation, err := repo.LockReservation(reservationID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if reservation.Status == model.ReservationCommitted {
		tx.Rollback()
		return nil
	}

	entry, err := repo.LockEntry(reservation.Date)
	if err != nil {
		tx.Rollback()
		return err
	}

	if reservation.Status == model.ReservationPending {
		entry.ReservedUSD -= reservation.EstimatedUSD
		entry.ReservedTokens -= reservation.EstimatedTokens
		if entry.ReservedUSD < budgetEpsilon {
			entry.ReservedUSD = 0
		}
		if entry.ReservedTokens < 0 {
			entry.ReservedTokens = 0
		}
	}

	var overage float64
	entry.TokenUsed += actualTokens
	spent := entry.USDSpent + actualUSD
	if spent > entry.Cap+budgetEpsilon {
		overage = spent - entry.Cap
		spent = entry.Cap
	}
	entry.USDSpent = spent
	entry.OverageUSD += overage

	if err := repo.SaveEntry(entry); err != nil {
		tx.Rollback()
		return err
	}

	settledAt := s.now().UTC()
	reservation.Status = model.ReservationCommitted
	reservation.ActualTokens = actualTokens
	reservation.ActualUSD = actualUSD
	reservation.SettledAt = &settledAt
	if err := repo.SaveReservation(reservation); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit budget spend", err, map[string]interface{}{
			"reservation_id": reservationID,
		})
		return err
	}

	s.metrics.RecordReservation("committed")
	s.metrics.RecordSpend(actualUSD-overage, overage)
	if overage > 0 {
		logger.Warn("Actual spend exceeded daily cap", map[string]interface{}{
			"reservation_id": reservationID,
			"date":           entry.Date,
			"cap":            entry.Cap,
			"overage_usd":    overage,
		})
	}
	logger.Info("Budget committed", map[string]interface{}{
		"reservation_id": reservationID,
		"date":           entry.Date,
		"actual_tokens":  actualTokens,
		"actual_usd":     actualUSD,
		"usd_spent":      entry.USDSpent,
	})
	return nil
}

// Release 공급자 호출 실패 시 예약분을 되돌린다 (pending 이 아니면 무시)
func (s *budgetService) Release(ctx context.Context, reservationID string) error {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	repo := s.budgetRepo.WithTx(tx)
	reservation, err := repo.LockReservation(reservationID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if reservation.Status != model.ReservationPending {
		tx.Rollback()
		return nil
	}

	entry, err := repo.LockEntry(reservation.Date)
	if err != nil {
		tx.Rollback()
		return err
	}
	entry.ReservedUSD -= reservation.EstimatedUSD
	entry.ReservedTokens -= reservation.EstimatedTokens
	if entry.ReservedUSD < budgetEpsilon {
		entry.ReservedUSD = 0
	}
	if entry.ReservedTokens < 0 {
		entry.ReservedTokens = 0
	}
	if err := repo.SaveEntry(entry); err != nil {
		tx.Rollback()
		return err
	}

	settledAt := s.now().UTC()
	reservation.Status = model.ReservationReleased
	reservation.SettledAt = &settledAt
	if err := repo.SaveReservation(reservation); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to release budget reservation", err, map[string]interface{}{
			"reservation_id": reservationID,
		})
		return err
	}

	s.metrics.RecordReservation("released")
	logger.Info("Budget reservation released", map[string]interface{}{
		"reservation_id": reservationID,
		"date":           reservation.Date,
		"estimated_usd":  reservation.EstimatedUSD,
	})
	return nil
}

// SweepStale TTL 이 지나도록 정산되지 않은 예약 해제
func (s *budgetService) SweepStale(ctx context.Context) (int, error) {
	ttl := s.cfg.ReservationTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	stale, err := s.budgetRepo.FindStaleReservations(s.now().UTC().Add(-ttl), 100)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, res := range stale {
		if err := s.Release(ctx, res.ID); err != nil {
			logger.Error("Failed to release stale reservation", err, map[string]interface{}{
				"reservation_id": res.ID,
			})
			continue
		}
		released++
	}

	if released > 0 {
		logger.Info("Stale budget reservations released", map[string]interface{}{
			"count": released,
		})
	}
	return released, nil
}

// Summary 최근 days 일 원장과 이번 달 합계
func (s *budgetService) Summary(days int) (*BudgetSummary, error) {
	if days <= 0 {
		days = 30
	}
	now := s.now().In(s.loc)
	to := now.Format(model.IngestionDateLayout)
	from := now.AddDate(0, 0, -(days - 1)).Format(model.IngestionDateLayout)

	entries, err := s.budgetRepo.ListEntries(from, to)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.BudgetLedgerEntry{}
	}

	month := to[:7]
	spent, reserved, err := s.budgetRepo.MonthTotals(month)
	if err != nil {
		return nil, err
	}

	return &BudgetSummary{
		Daily: entries,
		Month: MonthSummary{
			Month:    month,
			USDSpent: spent,
			Reserved: reserved,
			Cap:      s.cfg.MonthlyCapUSD,
		},
	}, nil
}
