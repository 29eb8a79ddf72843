// Package carryover finds unresolved action items of earlier minutes in a
// series and imports them, at most once each, into a draft minute.
package carryover

import (
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/minutes/internal/models"
)

// Candidate is an action item eligible for import, with everything needed
// to rebuild it as an item of another minute.
type Candidate struct {
	// OriginalTaskID is the id of the source item. It becomes the
	// OriginalTaskID of the imported copy.
	OriginalTaskID string     `json:"original_task_id"`
	ExternalTaskID string     `json:"external_task_id,omitempty"`
	Subject        string     `json:"subject"`
	Details        string     `json:"details,omitempty"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Responsibles   []string   `json:"responsibles,omitempty"`
	Notes          []string   `json:"notes,omitempty"`

	SourceMinuteID string    `json:"source_minute_id"`
	SourceTopicID  string    `json:"source_topic_id"`
	SourceDate     time.Time `json:"source_date"`
	TopicSubject   string    `json:"topic_subject"`
}

func newCandidate(m *models.Minute, t *models.Topic, it *models.InfoItem) Candidate {
	return Candidate{
		OriginalTaskID: it.ID,
		ExternalTaskID: it.ExternalTaskID,
		Subject:        it.Subject,
		Details:        it.Details,
		Status:         it.Status,
		Priority:       it.Priority,
		DueDate:        copyTime(it.DueDate),
		Responsibles:   append([]string(nil), it.Responsibles...),
		Notes:          append([]string(nil), it.Notes...),
		SourceMinuteID: m.ID,
		SourceTopicID:  t.ID,
		SourceDate:     m.Date,
		TopicSubject:   t.Subject,
	}
}

// ToInfoItem builds the imported copy of c. The copy keeps c's fields,
// is marked imported and remembers c as its origin.
func ToInfoItem(c Candidate) models.InfoItem {
	return models.InfoItem{
		ID:             uuid.NewString(),
		ItemType:       models.ItemTypeAction,
		Subject:        c.Subject,
		Details:        c.Details,
		Status:         c.Status,
		Priority:       c.Priority,
		DueDate:        copyTime(c.DueDate),
		Responsibles:   append([]string(nil), c.Responsibles...),
		Notes:          append([]string(nil), c.Notes...),
		IsImported:     true,
		OriginalTaskID: c.OriginalTaskID,
		ExternalTaskID: c.ExternalTaskID,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
