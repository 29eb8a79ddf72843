// Package series manages recurring meeting series.
package series

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zulandar/minutes/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a series does not exist.
var ErrNotFound = errors.New("series: not found")

// Create adds a new series.
func Create(db *gorm.DB, name, project string) (*models.Series, error) {
	if name == "" {
		return nil, fmt.Errorf("series: name is required")
	}
	s := models.Series{
		ID:      uuid.NewString(),
		Name:    name,
		Project: project,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("series: create %q: %w", name, err)
	}
	return &s, nil
}

// Get retrieves a series by ID.
func Get(db *gorm.DB, id string) (*models.Series, error) {
	var s models.Series
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("series: get %s: %w", id, err)
	}
	return &s, nil
}

// Exists reports whether a series with id exists.
func Exists(db *gorm.DB, id string) (bool, error) {
	var count int64
	if err := db.Model(&models.Series{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("series: check %s: %w", id, err)
	}
	return count > 0, nil
}

// List returns all series ordered by project then name.
func List(db *gorm.DB) ([]models.Series, error) {
	var out []models.Series
	if err := db.Order("project ASC, name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("series: list: %w", err)
	}
	return out, nil
}
