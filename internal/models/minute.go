package models

import "time"

// Item types.
const (
	ItemTypeInfo   = "info"
	ItemTypeAction = "actionItem"
)

// Minute is one meeting record of a series. Once finalized it is immutable.
type Minute struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	SeriesID    string     `gorm:"size:36;not null;index:idx_minute_series_date" json:"series_id"`
	Date        time.Time  `gorm:"index:idx_minute_series_date" json:"date"`
	IsFinalized bool       `gorm:"default:false" json:"is_finalized"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Topics []Topic `gorm:"foreignKey:MinuteID" json:"topics"`
}

// Topic groups info and action items within a minute.
type Topic struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	MinuteID string `gorm:"size:36;not null;index" json:"minute_id"`
	Position int    `json:"position"`
	Subject  string `gorm:"size:256;not null" json:"subject"`
	IsOpen   bool   `gorm:"default:true" json:"is_open"`

	Items []InfoItem `gorm:"foreignKey:TopicID" json:"items"`
}

// InfoItem is an entry of a topic. With ItemType actionItem it is the
// embedded, point-in-time copy of a task.
type InfoItem struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	TopicID        string     `gorm:"size:36;not null;index" json:"topic_id"`
	MinuteID       string     `gorm:"size:36;not null;index" json:"minute_id"`
	Position       int        `json:"position"`
	ItemType       string     `gorm:"size:16;default:info" json:"item_type"`
	Subject        string     `gorm:"size:512;not null" json:"subject"`
	Details        string     `gorm:"type:text" json:"details,omitempty"`
	Status         string     `gorm:"size:16" json:"status,omitempty"`
	Priority       string     `gorm:"size:8" json:"priority,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Responsibles   []string   `gorm:"type:text;serializer:json" json:"responsibles,omitempty"`
	Notes          []string   `gorm:"type:text;serializer:json" json:"notes,omitempty"`
	IsImported     bool       `gorm:"default:false" json:"is_imported"`
	OriginalTaskID string     `gorm:"size:36;index" json:"original_task_id,omitempty"`
	ExternalTaskID string     `gorm:"size:32;index" json:"external_task_id,omitempty"`
}

// IsActionItem reports whether the item is a trackable action item.
func (i InfoItem) IsActionItem() bool {
	return i.ItemType == ItemTypeAction
}

// IsOpen reports whether the item is an action item that still needs work.
func (i InfoItem) IsOpen() bool {
	return i.IsActionItem() && IsOpenStatus(i.Status)
}

// ActionItems returns the action items of m in topic/item order.
func (m *Minute) ActionItems() []InfoItem {
	var out []InfoItem
	for _, t := range m.Topics {
		for _, it := range t.Items {
			if it.IsActionItem() {
				out = append(out, it)
			}
		}
	}
	return out
}

// ImportedTaskIDs returns the set of OriginalTaskID values among m's imported items.
func (m *Minute) ImportedTaskIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, t := range m.Topics {
		for _, it := range t.Items {
			if it.IsImported && it.OriginalTaskID != "" {
				ids[it.OriginalTaskID] = struct{}{}
			}
		}
	}
	return ids
}
