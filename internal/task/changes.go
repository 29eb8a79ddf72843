package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/minutes/internal/models"
	"gorm.io/gorm"
)

// Change is one typed modification of a task record. The set of changes is
// closed: only the types in this package implement it.
type Change interface {
	apply(t *models.Task, now time.Time) (column string, err error)
}

// SetSubject replaces the subject.
type SetSubject string

// SetDetails replaces the details text.
type SetDetails string

// SetStatus moves the task to a new status, subject to ValidTransitions.
type SetStatus string

// SetPriority replaces the priority.
type SetPriority string

// SetDueDate sets the due date.
type SetDueDate time.Time

// ClearDueDate removes the due date.
type ClearDueDate struct{}

// SetResponsibles replaces the list of responsible users.
type SetResponsibles []string

func (c SetSubject) apply(t *models.Task, _ time.Time) (string, error) {
	if c == "" {
		return "", fmt.Errorf("subject must not be empty")
	}
	t.Subject = string(c)
	return "subject", nil
}

func (c SetDetails) apply(t *models.Task, _ time.Time) (string, error) {
	t.Details = string(c)
	return "details", nil
}

func (c SetStatus) apply(t *models.Task, now time.Time) (string, error) {
	to := string(c)
	if !models.ValidStatus(to) {
		return "", fmt.Errorf("invalid status %q", to)
	}
	if !isValidTransition(t.Status, to) {
		return "", fmt.Errorf("invalid status transition from %q to %q; valid transitions: %v", t.Status, to, ValidTransitions[t.Status])
	}
	t.Status = to
	switch {
	case to == models.StatusCompleted && t.CompletedAt == nil:
		t.CompletedAt = &now
	case models.IsOpenStatus(to):
		t.CompletedAt = nil
	}
	return "status", nil
}

func (c SetPriority) apply(t *models.Task, _ time.Time) (string, error) {
	if !models.ValidPriority(string(c)) {
		return "", fmt.Errorf("invalid priority %q", string(c))
	}
	t.Priority = string(c)
	return "priority", nil
}

func (c SetDueDate) apply(t *models.Task, _ time.Time) (string, error) {
	d := time.Time(c)
	t.DueDate = &d
	return "due_date", nil
}

func (ClearDueDate) apply(t *models.Task, _ time.Time) (string, error) {
	t.DueDate = nil
	return "due_date", nil
}

func (c SetResponsibles) apply(t *models.Task, _ time.Time) (string, error) {
	t.Responsibles = append([]string(nil), c...)
	return "responsibles", nil
}

// Update applies changes to the task record with the given id. Either all
// changes are written or none.
func Update(db *gorm.DB, id string, changes ...Change) (*models.Task, error) {
	if len(changes) == 0 {
		return Get(db, id)
	}

	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %s for update: %w", id, err)
	}

	now := time.Now()
	cols := []string{"updated_at"}
	for _, c := range changes {
		col, err := c.apply(&t, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidChange, id, err)
		}
		cols = append(cols, col)
		if col == "status" {
			cols = append(cols, "completed_at")
		}
	}

	if err := db.Model(&t).Select(cols).Updates(&t).Error; err != nil {
		return nil, fmt.Errorf("task: update %s: %w", id, err)
	}
	return &t, nil
}
