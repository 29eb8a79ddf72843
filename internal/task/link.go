package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/minutes/internal/models"
	"gorm.io/gorm"
)

// Pointer identifies the minute and topic holding a task's live copy.
type Pointer struct {
	MinutesID string
	TopicID   string
}

// Link overwrites the task's minute/topic pointer and returns the previous
// one. The last writer wins; callers decide whether a repoint is suspicious.
func Link(db *gorm.DB, id string, to Pointer) (Pointer, error) {
	var t models.Task
	if err := db.Select("id", "minutes_id", "topic_id").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Pointer{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Pointer{}, fmt.Errorf("task: get %s for link: %w", id, err)
	}

	var prev Pointer
	if t.MinutesID != nil {
		prev.MinutesID = *t.MinutesID
	}
	if t.TopicID != nil {
		prev.TopicID = *t.TopicID
	}

	if err := db.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
		"minutes_id": to.MinutesID,
		"topic_id":   to.TopicID,
	}).Error; err != nil {
		return prev, fmt.Errorf("task: link %s to %s: %w", id, to.MinutesID, err)
	}
	return prev, nil
}

// Lineage returns the chain of task records from id back to the root of its
// lineage, following SourceTaskID. The first element is the task itself.
func Lineage(db *gorm.DB, id string) ([]models.Task, error) {
	var chain []models.Task
	visited := make(map[string]bool)
	current := id
	for current != "" {
		if visited[current] {
			return chain, fmt.Errorf("%w at %s", ErrLineageCycle, current)
		}
		visited[current] = true

		var t models.Task
		if err := db.Where("id = ?", current).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if len(chain) == 0 {
					return nil, fmt.Errorf("%w: %s", ErrNotFound, current)
				}
				// Dangling source: the lineage ends here.
				return chain, nil
			}
			return chain, fmt.Errorf("task: lineage of %s: %w", id, err)
		}
		chain = append(chain, t)
		if t.SourceTaskID == nil {
			break
		}
		current = *t.SourceTaskID
	}
	return chain, nil
}

// Snapshot is the state of a task as recorded by the embedded copy in a
// minute.
type Snapshot struct {
	Subject      string
	Details      string
	Status       string
	Priority     string
	DueDate      *time.Time
	Responsibles []string
}

// Sync overwrites the record's fields with a minute's snapshot. The minute is
// authoritative, so no transition rules apply.
func Sync(db *gorm.DB, id string, s Snapshot) error {
	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("task: get %s for sync: %w", id, err)
	}
	if !models.ValidStatus(s.Status) || !models.ValidPriority(s.Priority) {
		return fmt.Errorf("task: sync %s: invalid status %q or priority %q", id, s.Status, s.Priority)
	}

	if s.Status == models.StatusCompleted && t.CompletedAt == nil {
		now := time.Now()
		t.CompletedAt = &now
	} else if s.Status != models.StatusCompleted {
		t.CompletedAt = nil
	}
	t.Subject = s.Subject
	t.Details = s.Details
	t.Status = s.Status
	t.Priority = s.Priority
	t.DueDate = s.DueDate
	t.Responsibles = s.Responsibles

	if err := db.Model(&t).
		Select("subject", "details", "status", "priority", "due_date", "responsibles", "completed_at", "updated_at").
		Updates(&t).Error; err != nil {
		return fmt.Errorf("task: sync %s: %w", id, err)
	}
	return nil
}
