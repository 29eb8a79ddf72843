package carryover

import (
	"fmt"
	"sort"

	"github.com/zulandar/minutes/internal/minute"
	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/series"
	"gorm.io/gorm"
)

// Resolve returns the action items of seriesID that are still open and not
// yet imported into the target minute, most recent minute first and in
// topic/item order within a minute. An unknown series has nothing pending.
// With an empty targetMinutesID every minute of the series is considered.
//
// Resolve only reads. A finalized target is not rejected here; importing
// into it is.
func Resolve(db *gorm.DB, seriesID, targetMinutesID string) ([]Candidate, error) {
	ok, err := series.Exists(db, seriesID)
	if err != nil {
		return nil, fmt.Errorf("carryover: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var target *models.Minute
	if targetMinutesID != "" {
		target, err = minute.Get(db, targetMinutesID)
		if err != nil {
			return nil, fmt.Errorf("carryover: target: %w", err)
		}
		if target.SeriesID != seriesID {
			return nil, fmt.Errorf("carryover: minute %s does not belong to series %s", targetMinutesID, seriesID)
		}
	}

	prior, err := priorMinutes(db, seriesID, target)
	if err != nil {
		return nil, err
	}

	already := map[string]struct{}{}
	if target != nil {
		already = target.ImportedTaskIDs()
	}
	return collect(prior, already), nil
}

// priorMinutes loads the minutes before target, most recent first.
func priorMinutes(db *gorm.DB, seriesID string, target *models.Minute) ([]models.Minute, error) {
	q := db.
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Topics.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("series_id = ?", seriesID)
	if target != nil {
		q = q.Where("id <> ?", target.ID)
	}

	var all []models.Minute
	if err := q.Order("date DESC, created_at DESC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("carryover: load minutes of %s: %w", seriesID, err)
	}
	out := all[:0]
	for _, m := range all {
		if target == nil || before(m, *target) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return before(out[j], out[i]) })
	return out, nil
}

// before orders minutes by date, then by creation for minutes of one date.
func before(a, b models.Minute) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// collect walks minutes newest first. An item copied into a newer minute is
// superseded by that copy, whose status decides whether the task is still
// open.
func collect(minutes []models.Minute, already map[string]struct{}) []Candidate {
	superseded := make(map[string]bool)
	var out []Candidate
	for mi := range minutes {
		m := &minutes[mi]
		for ti := range m.Topics {
			t := &m.Topics[ti]
			for ii := range t.Items {
				it := &t.Items[ii]
				if !it.IsActionItem() {
					continue
				}
				if it.IsImported && it.OriginalTaskID != "" {
					superseded[it.OriginalTaskID] = true
				}
				if superseded[it.ID] || !it.IsOpen() || isImported(it, already) {
					continue
				}
				out = append(out, newCandidate(m, t, it))
			}
		}
	}
	return out
}

// isImported reports whether the target already holds a copy of it, either
// of it directly or of the item it was itself imported from.
func isImported(it *models.InfoItem, already map[string]struct{}) bool {
	if _, ok := already[it.ID]; ok {
		return true
	}
	if it.IsImported && it.OriginalTaskID != "" {
		if _, ok := already[it.OriginalTaskID]; ok {
			return true
		}
	}
	return false
}
