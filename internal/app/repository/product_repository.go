package repository

import (
	"time"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductFilter struct {
	KeywordID *uint
	Status    *model.ProductStatus
	Limit     int
}

// AffiliateMapping 사람이 입력한 제휴 링크
type AffiliateMapping struct {
	URL      string
	HTML     string
	MappedBy string
	MappedAt time.Time
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	CreateBatch(products []model.ProductCandidate) error
	FindByID(id uint) (*model.ProductCandidate, error)
	FindByIDs(ids []uint) ([]model.ProductCandidate, error)
	FindWithFilter(filter ProductFilter) ([]model.ProductCandidate, error)
	DedupeKeysByKeyword(keywordID uint) ([]string, error)
	UpdateMapping(id uint, mapping AffiliateMapping) error
	CountByStatus() (map[model.ProductStatus]int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) CreateBatch(products []model.ProductCandidate) error {
	if len(products) == 0 {
		return nil
	}

	logger.Debug("Creating product candidates in database", map[string]interface{}{
		"count":      len(products),
		"keyword_id": products[0].KeywordID,
	})

	if err := r.db.Create(&products).Error; err != nil {
		logger.Error("Failed to create product candidates", err, map[string]interface{}{
			"count":      len(products),
			"keyword_id": products[0].KeywordID,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.ProductCandidate, error) {
	var product model.ProductCandidate
	if err := r.db.First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug("Product candidate not found in database", map[string]interface{}{
				"product_id": id,
			})
		} else {
			logger.Error("Failed to find product candidate by ID", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDs 요청한 순서를 유지해 반환 (없는 ID 는 건너뜀)
func (r *productRepository) FindByIDs(ids []uint) ([]model.ProductCandidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []model.ProductCandidate
	if err := r.db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		logger.Error("Failed to find product candidates by IDs", err, map[string]interface{}{
			"ids": ids,
		})
		return nil, err
	}

	byID := make(map[uint]model.ProductCandidate, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]model.ProductCandidate, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.ProductCandidate, error) {
	logger.Debug("Finding product candidates with filter", map[string]interface{}{
		"keyword_id": filter.KeywordID,
		"status":     filter.Status,
		"limit":      filter.Limit,
	})

	query := r.db.Model(&model.ProductCandidate{})
	if filter.KeywordID != nil {
		query = query.Where("keyword_id = ?", *filter.KeywordID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var products []model.ProductCandidate
	if err := query.Order("id DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to find product candidates", err)
		return nil, err
	}
	return products, nil
}

func (r *productRepository) DedupeKeysByKeyword(keywordID uint) ([]string, error) {
	var keys []string
	err := r.db.Model(&model.ProductCandidate{}).
		Where("keyword_id = ? AND dedupe_key <> ''", keywordID).
		Pluck("dedupe_key", &keys).Error
	if err != nil {
		logger.Error("Failed to load dedupe keys", err, map[string]interface{}{
			"keyword_id": keywordID,
		})
		return nil, err
	}
	return keys, nil
}

// UpdateMapping 제휴 링크를 기록하고 mapped 로 전환 (재매핑은 덮어쓰기)
func (r *productRepository) UpdateMapping(id uint, mapping AffiliateMapping) error {
	result := r.db.Model(&model.ProductCandidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"affiliate_url":  mapping.URL,
			"affiliate_html": mapping.HTML,
			"mapped_by":      mapping.MappedBy,
			"mapped_at":      mapping.MappedAt,
			"status":         model.ProductStatusMapped,
		})
	if result.Error != nil {
		logger.Error("Failed to update affiliate mapping", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Affiliate mapping stored", map[string]interface{}{
		"product_id": id,
		"mapped_by":  mapping.MappedBy,
	})
	return nil
}

func (r *productRepository) CountByStatus() (map[model.ProductStatus]int64, error) {
	var rows []struct {
		Status model.ProductStatus
		Count  int64
	}
	err := r.db.Model(&model.ProductCandidate{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count product candidates by status", err)
		return nil, err
	}

	counts := make(map[model.ProductStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
