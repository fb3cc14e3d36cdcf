package repository

import (
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

// DefaultKeywordLimit 목록 조회 기본 개수
const DefaultKeywordLimit = 200

type KeywordFilter struct {
	Date  string
	Limit int
}

type KeywordRepository interface {
	WithTx(tx *gorm.DB) KeywordRepository
	CreateBatch(keywords []model.Keyword) error
	FindByID(id uint) (*model.Keyword, error)
	List(filter KeywordFilter) ([]model.Keyword, error)
	Dedup(date string) (int64, error)
	DeleteCascade(date string) (*DeleteStats, error)
}

// DeleteStats 키워드 삭제 시 함께 지워진 행 수
type DeleteStats struct {
	Keywords     int64 `json:"keywords"`
	Candidates   int64 `json:"candidates"`
	Posts        int64 `json:"posts"`
	PostProducts int64 `json:"post_products"`
}

type keywordRepository struct {
	db *gorm.DB
}

func NewKeywordRepository(db *gorm.DB) KeywordRepository {
	return &keywordRepository{db: db}
}

func (r *keywordRepository) WithTx(tx *gorm.DB) KeywordRepository {
	return &keywordRepository{db: tx}
}

func (r *keywordRepository) CreateBatch(keywords []model.Keyword) error {
	if len(keywords) == 0 {
		return nil
	}

	logger.Debug("Creating keywords in database", map[string]interface{}{
		"count": len(keywords),
		"date":  keywords[0].IngestionDate,
	})

	if err := r.db.Create(&keywords).Error; err != nil {
		logger.Error("Failed to create keywords in database", err, map[string]interface{}{
			"count": len(keywords),
		})
		return err
	}
	return nil
}

func (r *keywordRepository) FindByID(id uint) (*model.Keyword, error) {
	var keyword model.Keyword
	if err := r.db.First(&keyword, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug("Keyword not found in database", map[string]interface{}{
				"keyword_id": id,
			})
		} else {
			logger.Error("Failed to find keyword by ID", err, map[string]interface{}{
				"keyword_id": id,
			})
		}
		return nil, err
	}
	return &keyword, nil
}

// List 최신 수집 순으로 조회 (fetched_at DESC, id DESC)
func (r *keywordRepository) List(filter KeywordFilter) ([]model.Keyword, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultKeywordLimit
	}

	query := r.db.Model(&model.Keyword{})
	if filter.Date != "" {
		query = query.Where("ingestion_date = ?", filter.Date)
	}

	var keywords []model.Keyword
	if err := query.Order("fetched_at DESC, id DESC").Limit(limit).Find(&keywords).Error; err != nil {
		logger.Error("Failed to list keywords", err, map[string]interface{}{
			"date":  filter.Date,
			"limit": limit,
		})
		return nil, err
	}

	logger.Debug("Keywords listed", map[string]interface{}{
		"date":  filter.Date,
		"count": len(keywords),
	})
	return keywords, nil
}

// Dedup (ingestion_date, text) 그룹마다 fetched_at 이 가장 늦은 행(동률이면 id 가 큰 행)만 남긴다
// 삭제되는 행에 달린 상품 후보와 글은 남는 행으로 옮긴다
func (r *keywordRepository) Dedup(date string) (int64, error) {
	query := r.db.Model(&model.Keyword{})
	if date != "" {
		query = query.Where("ingestion_date = ?", date)
	}

	var rows []model.Keyword
	if err := query.Order("ingestion_date, text, fetched_at DESC, id DESC").Find(&rows).Error; err != nil {
		logger.Error("Failed to load keywords for dedup", err, map[string]interface{}{
			"date": date,
		})
		return 0, err
	}

	type groupKey struct{ date, text string }
	survivors := make(map[groupKey]uint)
	moves := make(map[uint][]uint)
	for _, row := range rows {
		key := groupKey{row.IngestionDate, row.Text}
		keep, ok := survivors[key]
		if !ok {
			survivors[key] = row.ID
			continue
		}
		moves[keep] = append(moves[keep], row.ID)
	}

	var removed int64
	for keep, losers := range moves {
		if err := r.db.Model(&model.ProductCandidate{}).
			Where("keyword_id IN ?", losers).
			Update("keyword_id", keep).Error; err != nil {
			logger.Error("Failed to reassign candidates during dedup", err, map[string]interface{}{
				"keep_id": keep,
			})
			return removed, err
		}
		if err := r.db.Model(&model.Post{}).
			Where("keyword_id IN ?", losers).
			Update("keyword_id", keep).Error; err != nil {
			logger.Error("Failed to reassign posts during dedup", err, map[string]interface{}{
				"keep_id": keep,
			})
			return removed, err
		}

		result := r.db.Where("id IN ?", losers).Delete(&model.Keyword{})
		if result.Error != nil {
			logger.Error("Failed to delete duplicate keywords", result.Error, map[string]interface{}{
				"keep_id": keep,
				"losers":  losers,
			})
			return removed, result.Error
		}
		removed += result.RowsAffected
	}

	logger.Debug("Keyword dedup finished", map[string]interface{}{
		"date":    date,
		"scanned": len(rows),
		"removed": removed,
	})
	return removed, nil
}

// DeleteCascade 키워드와 그에 딸린 후보, 글, 글-상품 연결을 삭제 (date 가 비면 전체)
func (r *keywordRepository) DeleteCascade(date string) (*DeleteStats, error) {
	stats := &DeleteStats{}

	keywordIDs := func() *gorm.DB {
		q := r.db.Model(&model.Keyword{}).Select("id")
		if date != "" {
			q = q.Where("ingestion_date = ?", date)
		}
		return q
	}
	candidateIDs := r.db.Model(&model.ProductCandidate{}).Select("id").Where("keyword_id IN (?)", keywordIDs())
	postIDs := r.db.Model(&model.Post{}).Select("id").Where("keyword_id IN (?)", keywordIDs())

	result := r.db.
		Where("post_id IN (?) OR product_id IN (?)", postIDs, candidateIDs).
		Delete(&model.PostProduct{})
	if result.Error != nil {
		logger.Error("Failed to delete post products", result.Error, map[string]interface{}{"date": date})
		return nil, result.Error
	}
	stats.PostProducts = result.RowsAffected

	result = r.db.Where("keyword_id IN (?)", keywordIDs()).Delete(&model.Post{})
	if result.Error != nil {
		logger.Error("Failed to delete posts", result.Error, map[string]interface{}{"date": date})
		return nil, result.Error
	}
	stats.Posts = result.RowsAffected

	result = r.db.Where("keyword_id IN (?)", keywordIDs()).Delete(&model.ProductCandidate{})
	if result.Error != nil {
		logger.Error("Failed to delete product candidates", result.Error, map[string]interface{}{"date": date})
		return nil, result.Error
	}
	stats.Candidates = result.RowsAffected

	del := r.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	if date != "" {
		del = del.Where("ingestion_date = ?", date)
	}
	result = del.Delete(&model.Keyword{})
	if result.Error != nil {
		logger.Error("Failed to delete keywords", result.Error, map[string]interface{}{"date": date})
		return nil, result.Error
	}
	stats.Keywords = result.RowsAffected

	logger.Debug("Keywords deleted with cascade", map[string]interface{}{
		"date":          date,
		"keywords":      stats.Keywords,
		"candidates":    stats.Candidates,
		"posts":         stats.Posts,
		"post_products": stats.PostProducts,
	})
	return stats, nil
}
