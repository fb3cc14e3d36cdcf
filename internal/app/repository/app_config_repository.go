package repository

import (
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppConfigRepository interface {
	GetAll() (map[string]string, error)
	Upsert(values map[string]string) error
}

type appConfigRepository struct {
	db *gorm.DB
}

func NewAppConfigRepository(db *gorm.DB) AppConfigRepository {
	return &appConfigRepository{db: db}
}

func (r *appConfigRepository) GetAll() (map[string]string, error) {
	var rows []model.AppConfig
	if err := r.db.Find(&rows).Error; err != nil {
		logger.Error("Failed to load app configs", err)
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (r *appConfigRepository) Upsert(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	rows := make([]model.AppConfig, 0, len(values))
	for k, v := range values {
		rows = append(rows, model.AppConfig{Key: k, Value: v})
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		logger.Error("Failed to upsert app configs", err, map[string]interface{}{
			"keys": len(values),
		})
		return err
	}

	logger.Debug("App configs upserted", map[string]interface{}{
		"keys": len(values),
	})
	return nil
}
