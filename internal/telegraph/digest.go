package telegraph

import (
	"fmt"
	"time"

	"github.com/zulandar/minutes/internal/carryover"
	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/series"
	"gorm.io/gorm"
)

// Digest lists the action items still pending in a series.
type Digest struct {
	Series      models.Series
	GeneratedAt time.Time
	Items       []carryover.Candidate
	Overdue     int
}

// BuildDigest collects the pending action items of a series across all of
// its minutes, most recent minute first.
func BuildDigest(db *gorm.DB, seriesID string, now time.Time) (*Digest, error) {
	s, err := series.Get(db, seriesID)
	if err != nil {
		return nil, fmt.Errorf("telegraph: digest: %w", err)
	}
	items, err := carryover.Resolve(db, seriesID, "")
	if err != nil {
		return nil, fmt.Errorf("telegraph: digest for %s: %w", s.Name, err)
	}
	d := &Digest{Series: *s, GeneratedAt: now, Items: items}
	for _, it := range items {
		if isOverdue(it, now) {
			d.Overdue++
		}
	}
	return d, nil
}

// isOverdue reports whether c was due on a day before now.
func isOverdue(c carryover.Candidate, now time.Time) bool {
	if c.DueDate == nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return c.DueDate.Before(today)
}
