// Package task provides the task record store: the cross-minute identity of
// an action item and its pointer to the minute holding the live copy.
package task

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/series"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a task record does not exist.
	ErrNotFound = errors.New("task: not found")
	// ErrLineageTaken is returned when a source task already has a successor.
	ErrLineageTaken = errors.New("task: source already continued")
	// ErrLineageCycle is returned when walking SourceTaskID revisits a task.
	ErrLineageCycle = errors.New("task: lineage cycle")
	// ErrInvalidChange is returned when an update is rejected before writing.
	ErrInvalidChange = errors.New("task: invalid change")
)

// CreateOpts holds parameters for creating a new task record.
type CreateOpts struct {
	Subject      string
	Details      string
	Status       string // defaults to open
	Priority     string // defaults to medium
	DueDate      *time.Time
	Responsibles []string
	SeriesID     string
	MinutesID    string
	TopicID      string
	SourceTaskID string
}

// ListFilters holds optional filters for listing task records.
type ListFilters struct {
	SeriesID    string
	Status      string
	MinutesID   string
	Responsible string
	OpenOnly    bool
}

// ValidTransitions maps each status to its valid next statuses.
var ValidTransitions = map[string][]string{
	models.StatusOpen:       {models.StatusInProgress, models.StatusCompleted, models.StatusCancelled},
	models.StatusInProgress: {models.StatusOpen, models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:  {models.StatusOpen},
	models.StatusCancelled:  {models.StatusOpen},
}

// GenerateID creates a task ID in task-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("task: generate ID: %w", err)
	}
	return "task-" + hex.EncodeToString(b)[:5], nil
}

// Create creates a new task record with an auto-generated ID.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, error) {
	if opts.Subject == "" {
		return nil, fmt.Errorf("task: subject is required")
	}
	if opts.SeriesID == "" {
		return nil, fmt.Errorf("task: series is required")
	}
	if opts.Status == "" {
		opts.Status = models.StatusOpen
	}
	if !models.ValidStatus(opts.Status) {
		return nil, fmt.Errorf("task: invalid status %q", opts.Status)
	}
	if opts.Priority == "" {
		opts.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(opts.Priority) {
		return nil, fmt.Errorf("task: invalid priority %q", opts.Priority)
	}

	ok, err := series.Exists(db, opts.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("task: series not found: %s", opts.SeriesID)
	}

	if opts.SourceTaskID != "" {
		if err := checkSource(db, opts.SourceTaskID); err != nil {
			return nil, err
		}
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	t := models.Task{
		ID:           id,
		Subject:      opts.Subject,
		Details:      opts.Details,
		Status:       opts.Status,
		Priority:     opts.Priority,
		DueDate:      opts.DueDate,
		Responsibles: opts.Responsibles,
		SeriesID:     opts.SeriesID,
	}
	if opts.MinutesID != "" {
		t.MinutesID = &opts.MinutesID
	}
	if opts.TopicID != "" {
		t.TopicID = &opts.TopicID
	}
	if opts.SourceTaskID != "" {
		t.SourceTaskID = &opts.SourceTaskID
	}
	if t.Status == models.StatusCompleted {
		now := time.Now()
		t.CompletedAt = &now
	}

	if err := db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("task: create: %w", err)
	}
	return &t, nil
}

// checkSource verifies the source exists and has no successor yet, so each
// lineage has at most one record per step.
func checkSource(db *gorm.DB, sourceID string) error {
	var count int64
	if err := db.Model(&models.Task{}).Where("id = ?", sourceID).Count(&count).Error; err != nil {
		return fmt.Errorf("task: check source %s: %w", sourceID, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: source %s", ErrNotFound, sourceID)
	}
	if err := db.Model(&models.Task{}).Where("source_task_id = ?", sourceID).Count(&count).Error; err != nil {
		return fmt.Errorf("task: check successors of %s: %w", sourceID, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrLineageTaken, sourceID)
	}
	return nil
}

// Get retrieves a task record by ID, preloading notes.
func Get(db *gorm.DB, id string) (*models.Task, error) {
	var t models.Task
	if err := db.Preload("Notes", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

// List returns task records matching the given filters, oldest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})

	if filters.SeriesID != "" {
		q = q.Where("series_id = ?", filters.SeriesID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.OpenOnly {
		q = q.Where("status IN ?", []string{models.StatusOpen, models.StatusInProgress})
	}
	if filters.MinutesID != "" {
		q = q.Where("minutes_id = ?", filters.MinutesID)
	}

	var tasks []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}

	if filters.Responsible == "" {
		return tasks, nil
	}
	// Responsibles is a serialized column, so match in memory.
	out := tasks[:0]
	for _, t := range tasks {
		for _, r := range t.Responsibles {
			if r == filters.Responsible {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// AddNote appends a note to a task record.
func AddNote(db *gorm.DB, id, author, body string) (*models.TaskNote, error) {
	if body == "" {
		return nil, fmt.Errorf("task: note body is required")
	}
	var count int64
	if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("task: check %s: %w", id, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	note := models.TaskNote{TaskID: id, Author: author, Body: body}
	if err := db.Create(&note).Error; err != nil {
		return nil, fmt.Errorf("task: add note to %s: %w", id, err)
	}
	return &note, nil
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for i := 0; i < 2; i++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("task: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("task: failed to generate unique ID after retries")
}
