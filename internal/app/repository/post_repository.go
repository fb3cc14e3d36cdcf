package repository

import (
	"time"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

type PostFilter struct {
	Status *model.PostStatus
	Limit  int
	Offset int
}

type PostRepository interface {
	WithTx(tx *gorm.DB) PostRepository
	Create(post *model.Post) error
	FindByID(id uint) (*model.Post, error)
	FindWithFilter(filter PostFilter) ([]model.Post, error)
	FindDue(now time.Time, limit int) ([]model.Post, error)
	Transition(id uint, from []model.PostStatus, updates map[string]interface{}) (bool, error)
	CountByStatus() (map[model.PostStatus]int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx}
}

func (r *postRepository) preloadPost() *gorm.DB {
	return r.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// Create 글과 상품 연결(post_products)을 함께 저장
func (r *postRepository) Create(post *model.Post) error {
	logger.Debug("Creating post in database", map[string]interface{}{
		"keyword_id":    post.KeywordID,
		"template_type": post.TemplateType,
		"compare_mode":  post.CompareMode,
		"products":      len(post.Products),
	})

	if err := r.db.Create(post).Error; err != nil {
		logger.Error("Failed to create post in database", err, map[string]interface{}{
			"keyword_id":    post.KeywordID,
			"template_type": post.TemplateType,
		})
		return err
	}
	post.FillProductIDs()

	logger.Debug("Post created in database", map[string]interface{}{
		"post_id": post.ID,
		"status":  post.Status,
	})
	return nil
}

func (r *postRepository) FindByID(id uint) (*model.Post, error) {
	var post model.Post
	if err := r.preloadPost().First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug("Post not found in database", map[string]interface{}{
				"post_id": id,
			})
		} else {
			logger.Error("Failed to find post by ID", err, map[string]interface{}{
				"post_id": id,
			})
		}
		return nil, err
	}
	post.FillProductIDs()
	return &post, nil
}

func (r *postRepository) FindWithFilter(filter PostFilter) ([]model.Post, error) {
	query := r.preloadPost().Model(&model.Post{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var posts []model.Post
	if err := query.Order("id DESC").Find(&posts).Error; err != nil {
		logger.Error("Failed to find posts", err, map[string]interface{}{
			"status": filter.Status,
		})
		return nil, err
	}
	for i := range posts {
		posts[i].FillProductIDs()
	}
	return posts, nil
}

// FindDue 예약 시각이 지난 scheduled 글 (오래된 순)
func (r *postRepository) FindDue(now time.Time, limit int) ([]model.Post, error) {
	query := r.preloadPost().
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", model.PostStatusScheduled, now).
		Order("scheduled_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var posts []model.Post
	if err := query.Find(&posts).Error; err != nil {
		logger.Error("Failed to find due posts", err, map[string]interface{}{
			"now": now,
		})
		return nil, err
	}
	for i := range posts {
		posts[i].FillProductIDs()
	}
	return posts, nil
}

// Transition 현재 상태가 from 중 하나일 때만 갱신 (동시 발행 시 한쪽만 성공)
func (r *postRepository) Transition(id uint, from []model.PostStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.Post{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to transition post status", result.Error, map[string]interface{}{
			"post_id": id,
			"from":    from,
			"to":      updates["status"],
		})
		return false, result.Error
	}

	logger.Debug("Post status transition", map[string]interface{}{
		"post_id": id,
		"to":      updates["status"],
		"applied": result.RowsAffected > 0,
	})
	return result.RowsAffected > 0, nil
}

func (r *postRepository) CountByStatus() (map[model.PostStatus]int64, error) {
	var rows []struct {
		Status model.PostStatus
		Count  int64
	}
	err := r.db.Model(&model.Post{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count posts by status", err)
		return nil, err
	}

	counts := make(map[model.PostStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
