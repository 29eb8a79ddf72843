package minute

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/task"
	"gorm.io/gorm"
)

// Save replaces the stored document with doc in a single transaction and
// repoints the task records of linked action items at this minute. The
// returned document is the stored state after the write.
func Save(db *gorm.DB, doc *models.Minute) (*models.Minute, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("minute: save: id is required")
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var stored models.Minute
		if err := tx.Where("id = ?", doc.ID).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, doc.ID)
			}
			return fmt.Errorf("minute: load %s: %w", doc.ID, err)
		}
		if stored.IsFinalized {
			return fmt.Errorf("%w: %s", ErrFinalized, doc.ID)
		}
		if doc.SeriesID != "" && doc.SeriesID != stored.SeriesID {
			return fmt.Errorf("minute: save %s: cannot move to series %s", doc.ID, doc.SeriesID)
		}
		doc.SeriesID = stored.SeriesID
		doc.IsFinalized = false
		doc.FinalizedAt = nil
		if doc.Date.IsZero() {
			doc.Date = stored.Date
		}
		normalize(doc)

		if err := tx.Where("minute_id = ?", doc.ID).Delete(&models.InfoItem{}).Error; err != nil {
			return fmt.Errorf("minute: clear items of %s: %w", doc.ID, err)
		}
		if err := tx.Where("minute_id = ?", doc.ID).Delete(&models.Topic{}).Error; err != nil {
			return fmt.Errorf("minute: clear topics of %s: %w", doc.ID, err)
		}
		if err := tx.Model(&models.Minute{}).Where("id = ?", doc.ID).Updates(map[string]interface{}{
			"date":       doc.Date,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("minute: update %s: %w", doc.ID, err)
		}
		if err := writeTopics(tx, doc); err != nil {
			return err
		}
		return linkTasks(tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return Get(db, doc.ID)
}

// linkTasks repoints every linked action item's task record at doc. Items
// without an external task id are left alone; linkage is established lazily.
func linkTasks(tx *gorm.DB, doc *models.Minute) error {
	for _, t := range doc.Topics {
		for _, it := range t.Items {
			if !it.IsActionItem() || it.ExternalTaskID == "" {
				continue
			}
			prev, err := task.Link(tx, it.ExternalTaskID, task.Pointer{MinutesID: doc.ID, TopicID: t.ID})
			if errors.Is(err, task.ErrNotFound) {
				log.Printf("minute: save %s: item %s links missing task %s", doc.ID, it.ID, it.ExternalTaskID)
				continue
			}
			if err != nil {
				return fmt.Errorf("minute: link item %s: %w", it.ID, err)
			}
			warnIfNewer(tx, doc, it.ExternalTaskID, prev)
		}
	}
	return nil
}

// warnIfNewer logs when a save takes a task away from a more recent minute.
// The pointer is still overwritten.
func warnIfNewer(tx *gorm.DB, doc *models.Minute, taskID string, prev task.Pointer) {
	if prev.MinutesID == "" || prev.MinutesID == doc.ID {
		return
	}
	var other models.Minute
	if err := tx.Select("id", "date").Where("id = ?", prev.MinutesID).First(&other).Error; err != nil {
		return
	}
	if other.Date.After(doc.Date) {
		log.Printf("minute: task %s repointed from newer minute %s (%s) to %s (%s)",
			taskID, other.ID, other.Date.Format("2006-01-02"), doc.ID, doc.Date.Format("2006-01-02"))
	}
}

// Finalize makes a minute immutable. Action items without a task record get
// one: imported items adopt the record of the item they were imported from,
// the rest get a new record. Every linked record is synced to the state the
// minute recorded.
func Finalize(db *gorm.DB, id string) (*models.Minute, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		doc, err := Get(tx, id)
		if err != nil {
			return err
		}
		if doc.IsFinalized {
			return fmt.Errorf("%w: %s", ErrFinalized, id)
		}

		for ti := range doc.Topics {
			t := &doc.Topics[ti]
			for ii := range t.Items {
				it := &t.Items[ii]
				if !it.IsActionItem() {
					continue
				}
				if err := ensureTask(tx, doc, t, it); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		if err := tx.Model(&models.Minute{}).Where("id = ?", id).Updates(map[string]interface{}{
			"is_finalized": true,
			"finalized_at": now,
			"updated_at":   now,
		}).Error; err != nil {
			return fmt.Errorf("minute: finalize %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}

// ensureTask links it to a task record, creating or adopting one as needed,
// and syncs the record with the item. An action item and every copy made of
// it share one record, whichever of their minutes is finalized first.
func ensureTask(tx *gorm.DB, doc *models.Minute, t *models.Topic, it *models.InfoItem) error {
	kin, err := copyChain(tx, it)
	if err != nil {
		return err
	}
	if it.ExternalTaskID == "" {
		for _, k := range kin {
			if k.ExternalTaskID != "" {
				it.ExternalTaskID = k.ExternalTaskID
				break
			}
		}
	}

	if it.ExternalTaskID == "" {
		rec, err := task.Create(tx, task.CreateOpts{
			Subject:      it.Subject,
			Details:      it.Details,
			Status:       it.Status,
			Priority:     it.Priority,
			DueDate:      it.DueDate,
			Responsibles: it.Responsibles,
			SeriesID:     doc.SeriesID,
			MinutesID:    doc.ID,
			TopicID:      t.ID,
		})
		if err != nil {
			return fmt.Errorf("minute: create task for item %s: %w", it.ID, err)
		}
		it.ExternalTaskID = rec.ID
	} else {
		newer, err := linkedToNewer(tx, doc, it.ExternalTaskID)
		if err != nil {
			return err
		}
		if newer {
			// A later minute already holds the live copy; keep its state.
			return recordLink(tx, it, kin)
		}
		prev, err := task.Link(tx, it.ExternalTaskID, task.Pointer{MinutesID: doc.ID, TopicID: t.ID})
		if errors.Is(err, task.ErrNotFound) {
			log.Printf("minute: finalize %s: item %s links missing task %s", doc.ID, it.ID, it.ExternalTaskID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("minute: link item %s: %w", it.ID, err)
		}
		warnIfNewer(tx, doc, it.ExternalTaskID, prev)
	}

	if err := recordLink(tx, it, kin); err != nil {
		return err
	}
	return task.Sync(tx, it.ExternalTaskID, task.Snapshot{
		Subject:      it.Subject,
		Details:      it.Details,
		Status:       it.Status,
		Priority:     it.Priority,
		DueDate:      it.DueDate,
		Responsibles: it.Responsibles,
	})
}

// recordLink stores it's task id on it and on every unlinked item of its
// copy chain.
func recordLink(tx *gorm.DB, it *models.InfoItem, kin []models.InfoItem) error {
	if err := tx.Model(&models.InfoItem{}).Where("id = ?", it.ID).
		Update("external_task_id", it.ExternalTaskID).Error; err != nil {
		return fmt.Errorf("minute: record task link of item %s: %w", it.ID, err)
	}
	var ids []string
	for _, k := range kin {
		if k.ExternalTaskID == "" {
			ids = append(ids, k.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&models.InfoItem{}).Where("id IN ?", ids).
		Update("external_task_id", it.ExternalTaskID).Error; err != nil {
		return fmt.Errorf("minute: record task link of copies of %s: %w", it.ID, err)
	}
	return nil
}

// copyChain returns the other items of it's copy chain: the items it was
// imported from, nearest first, then every copy made from any of them.
func copyChain(tx *gorm.DB, it *models.InfoItem) ([]models.InfoItem, error) {
	cols := []string{"id", "is_imported", "original_task_id", "external_task_id"}
	seen := map[string]bool{it.ID: true}
	var out []models.InfoItem

	root := it.ID
	cur := *it
	for cur.IsImported && cur.OriginalTaskID != "" && !seen[cur.OriginalTaskID] {
		var origin models.InfoItem
		err := tx.Select(cols).Where("id = ?", cur.OriginalTaskID).First(&origin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("minute: load origin of item %s: %w", cur.ID, err)
		}
		seen[origin.ID] = true
		out = append(out, origin)
		root = origin.ID
		cur = origin
	}

	frontier := []string{root}
	for len(frontier) > 0 {
		var copies []models.InfoItem
		if err := tx.Select(cols).
			Where("is_imported = ? AND original_task_id IN ?", true, frontier).
			Order("id").Find(&copies).Error; err != nil {
			return nil, fmt.Errorf("minute: load copies of item %s: %w", it.ID, err)
		}
		frontier = frontier[:0]
		for _, c := range copies {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			frontier = append(frontier, c.ID)
		}
	}
	return out, nil
}

// linkedToNewer reports whether the task record points at a minute dated
// after doc.
func linkedToNewer(tx *gorm.DB, doc *models.Minute, taskID string) (bool, error) {
	var rec models.Task
	err := tx.Select("id", "minutes_id").Where("id = ?", taskID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("minute: load task %s: %w", taskID, err)
	}
	if rec.MinutesID == nil || *rec.MinutesID == "" || *rec.MinutesID == doc.ID {
		return false, nil
	}
	var other models.Minute
	if err := tx.Select("id", "date").Where("id = ?", *rec.MinutesID).First(&other).Error; err != nil {
		return false, nil
	}
	return other.Date.After(doc.Date), nil
}

// Delete removes a draft minute and its topics and items.
func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var stored models.Minute
		if err := tx.Where("id = ?", id).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return fmt.Errorf("minute: load %s: %w", id, err)
		}
		if stored.IsFinalized {
			return fmt.Errorf("%w: %s", ErrFinalized, id)
		}
		if err := tx.Where("minute_id = ?", id).Delete(&models.InfoItem{}).Error; err != nil {
			return fmt.Errorf("minute: delete items of %s: %w", id, err)
		}
		if err := tx.Where("minute_id = ?", id).Delete(&models.Topic{}).Error; err != nil {
			return fmt.Errorf("minute: delete topics of %s: %w", id, err)
		}
		if err := tx.Delete(&models.Minute{ID: id}).Error; err != nil {
			return fmt.Errorf("minute: delete %s: %w", id, err)
		}
		return nil
	})
}
