package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zulandar/minutes/internal/config"
	"github.com/zulandar/minutes/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Series{},
		&models.Minute{},
		&models.Topic{},
		&models.InfoItem{},
		&models.Task{},
		&models.TaskNote{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedSeries inserts the configured series, leaving existing ones untouched.
func SeedSeries(db *gorm.DB, series []config.SeriesConfig) error {
	for _, sc := range series {
		s := models.Series{
			ID:      uuid.NewString(),
			Name:    sc.Name,
			Project: sc.Project,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "project"}},
			DoNothing: true,
		}).Create(&s)
		if result.Error != nil {
			return fmt.Errorf("db: seed series %q: %w", sc.Name, result.Error)
		}
	}
	return nil
}
