package db

import (
	"fmt"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"gorm.io/gorm"
)

// Migrate runs database migrations against the global connection
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB 주어진 연결에 모든 모델 AutoMigrate
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := model.All()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// ResetSchema 모든 테이블 삭제 후 재생성 (되돌릴 수 없음)
func ResetSchema(conn *gorm.DB) error {
	models := model.All()
	logger.Warn("Dropping all tables", map[string]interface{}{
		"models_count": len(models),
	})

	for i := len(models) - 1; i >= 0; i-- {
		if err := conn.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return MigrateDB(conn)
}
