// Package minute stores meeting minutes as whole documents: a minute with
// its topics and their info/action items.
package minute

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/series"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a minute does not exist.
	ErrNotFound = errors.New("minute: not found")
	// ErrFinalized is returned when a finalized minute would be modified.
	ErrFinalized = errors.New("minute: finalized")
	// ErrDuplicateImport is returned when two items of one minute were
	// imported from the same original task.
	ErrDuplicateImport = errors.New("minute: duplicate import")
	// ErrInvalid is returned when a document fails validation.
	ErrInvalid = errors.New("minute: invalid document")
)

// CreateOpts holds parameters for creating a draft minute.
type CreateOpts struct {
	SeriesID string
	Date     time.Time // defaults to now
	Topics   []models.Topic
}

// Create creates a draft minute in a series.
func Create(db *gorm.DB, opts CreateOpts) (*models.Minute, error) {
	if opts.SeriesID == "" {
		return nil, fmt.Errorf("minute: series is required")
	}
	ok, err := series.Exists(db, opts.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("minute: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("minute: %w: %s", series.ErrNotFound, opts.SeriesID)
	}
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}

	doc := &models.Minute{
		ID:       uuid.NewString(),
		SeriesID: opts.SeriesID,
		Date:     opts.Date,
		Topics:   opts.Topics,
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	normalize(doc)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(doc).Error; err != nil {
			return fmt.Errorf("minute: create: %w", err)
		}
		return writeTopics(tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return Get(db, doc.ID)
}

// Get retrieves a minute with its topics and items in position order.
func Get(db *gorm.DB, id string) (*models.Minute, error) {
	var doc models.Minute
	err := db.
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Topics.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("minute: get %s: %w", id, err)
	}
	return &doc, nil
}

// List returns the minutes of a series, most recent first, without topics.
func List(db *gorm.DB, seriesID string) ([]models.Minute, error) {
	var out []models.Minute
	if err := db.Where("series_id = ?", seriesID).
		Order("date DESC, created_at DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("minute: list %s: %w", seriesID, err)
	}
	return out, nil
}

// Validate checks a document's items before it is written.
func Validate(doc *models.Minute) error {
	seen := make(map[string]bool)
	for ti, t := range doc.Topics {
		if t.Subject == "" {
			return fmt.Errorf("%w: topics[%d].subject is required", ErrInvalid, ti)
		}
		for ii, it := range t.Items {
			if it.Subject == "" {
				return fmt.Errorf("%w: topics[%d].items[%d].subject is required", ErrInvalid, ti, ii)
			}
			switch it.ItemType {
			case "", models.ItemTypeInfo:
			case models.ItemTypeAction:
				if it.Status != "" && !models.ValidStatus(it.Status) {
					return fmt.Errorf("%w: topics[%d].items[%d]: invalid status %q", ErrInvalid, ti, ii, it.Status)
				}
				if it.Priority != "" && !models.ValidPriority(it.Priority) {
					return fmt.Errorf("%w: topics[%d].items[%d]: invalid priority %q", ErrInvalid, ti, ii, it.Priority)
				}
			default:
				return fmt.Errorf("%w: topics[%d].items[%d]: invalid item type %q", ErrInvalid, ti, ii, it.ItemType)
			}
			if !it.IsImported || it.OriginalTaskID == "" {
				continue
			}
			if seen[it.OriginalTaskID] {
				return fmt.Errorf("%w: %s", ErrDuplicateImport, it.OriginalTaskID)
			}
			seen[it.OriginalTaskID] = true
		}
	}
	return nil
}

// normalize assigns ids, owner ids, positions and action-item defaults.
func normalize(doc *models.Minute) {
	for ti := range doc.Topics {
		t := &doc.Topics[ti]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.MinuteID = doc.ID
		t.Position = ti
		for ii := range t.Items {
			it := &t.Items[ii]
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			it.TopicID = t.ID
			it.MinuteID = doc.ID
			it.Position = ii
			if it.ItemType == "" {
				it.ItemType = models.ItemTypeInfo
			}
			if it.IsActionItem() {
				if it.Status == "" {
					it.Status = models.StatusOpen
				}
				if it.Priority == "" {
					it.Priority = models.PriorityMedium
				}
			}
		}
	}
}

// writeTopics inserts the topics and items of doc.
func writeTopics(tx *gorm.DB, doc *models.Minute) error {
	for i := range doc.Topics {
		t := &doc.Topics[i]
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return fmt.Errorf("minute: write topic %q: %w", t.Subject, err)
		}
		if len(t.Items) == 0 {
			continue
		}
		if err := tx.Create(&t.Items).Error; err != nil {
			return fmt.Errorf("minute: write items of topic %q: %w", t.Subject, err)
		}
	}
	return nil
}
