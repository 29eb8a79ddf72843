package models

import "time"

// Series is a recurring meeting. Carryover is computed within one series.
type Series struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128;not null;uniqueIndex:idx_series_project_name" json:"name"`
	Project   string    `gorm:"size:128;uniqueIndex:idx_series_project_name" json:"project"`
	CreatedAt time.Time `json:"created_at"`

	Minutes []Minute `gorm:"foreignKey:SeriesID" json:"-"`
}
