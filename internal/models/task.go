package models

import "time"

// Task statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Task priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is the cross-minute record of an action item. MinutesID and TopicID
// point at the minute currently holding the live embedded copy.
type Task struct {
	ID           string     `gorm:"primaryKey;size:32" json:"id"`
	Subject      string     `gorm:"size:512;not null" json:"subject"`
	Details      string     `gorm:"type:text" json:"details,omitempty"`
	Status       string     `gorm:"size:16;default:open;index" json:"status"`
	Priority     string     `gorm:"size:8;default:medium" json:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Responsibles []string   `gorm:"type:text;serializer:json" json:"responsibles,omitempty"`
	SeriesID     string     `gorm:"size:36;not null;index" json:"series_id"`
	MinutesID    *string    `gorm:"size:36;index" json:"minutes_id,omitempty"`
	TopicID      *string    `gorm:"size:36" json:"topic_id,omitempty"`
	SourceTaskID *string    `gorm:"size:32;uniqueIndex" json:"source_task_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Notes []TaskNote `gorm:"foreignKey:TaskID" json:"notes,omitempty"`
}

// TaskNote is a free-form note appended to a task outside of any minute.
type TaskNote struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID    string    `gorm:"size:32;index" json:"task_id"`
	Author    string    `gorm:"size:64" json:"author,omitempty"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// IsOpenStatus reports whether status still counts as unresolved.
func IsOpenStatus(status string) bool {
	return status == StatusOpen || status == StatusInProgress
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
