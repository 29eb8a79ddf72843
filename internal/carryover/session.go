package carryover

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/minutes/internal/minute"
	"github.com/zulandar/minutes/internal/models"
)

// State is the import state of one task within a session.
type State int

const (
	// StateEligible means the task has not been requested for import.
	StateEligible State = iota
	// StateLocked means an import of the task is being applied.
	StateLocked
	// StateImported means the task's copy is in the session's minute.
	StateImported
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateImported:
		return "imported"
	default:
		return "eligible"
	}
}

// Session is one edit session of a draft minute. It holds the working copy
// of the minute and imports each task into it at most once, however often
// the import is requested. The imported set outlives failed saves, so a
// retry never duplicates an import.
type Session struct {
	ID string

	// saving is held for the whole of a save, from snapshot to replace.
	// Imports wait on it so none lands between the two.
	saving sync.Mutex

	mu       sync.Mutex
	doc      *models.Minute
	imported map[string]struct{}
	locked   map[string]struct{}
	lastUsed time.Time
}

// NewSession starts a session on doc. Tasks doc already holds copies of
// count as imported. A finalized minute cannot be edited.
func NewSession(doc *models.Minute) (*Session, error) {
	if doc.IsFinalized {
		return nil, fmt.Errorf("carryover: open session: %w: %s", minute.ErrFinalized, doc.ID)
	}
	return &Session{
		ID:       uuid.NewString(),
		doc:      copyMinute(doc),
		imported: doc.ImportedTaskIDs(),
		locked:   make(map[string]struct{}),
		lastUsed: time.Now(),
	}, nil
}

// MinuteID returns the id of the minute being edited.
func (s *Session) MinuteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ID
}

// SeriesID returns the series of the minute being edited.
func (s *Session) SeriesID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.SeriesID
}

// State reports the import state of the task with the given original id.
func (s *Session) State(originalTaskID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.imported[originalTaskID]; ok {
		return StateImported
	}
	if _, ok := s.locked[originalTaskID]; ok {
		return StateLocked
	}
	return StateEligible
}

// Import adds c's copy to the working minute. It reports false, doing
// nothing, when c is already imported or being imported.
func (s *Session) Import(c Candidate) bool {
	s.saving.Lock()
	defer s.saving.Unlock()
	if !s.lock(c.OriginalTaskID) {
		return false
	}
	item := ToInfoItem(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	place(s.doc, c.TopicSubject, item)
	s.imported[c.OriginalTaskID] = struct{}{}
	delete(s.locked, c.OriginalTaskID)
	s.lastUsed = time.Now()
	return true
}

// lock moves a task from eligible to locked. The check and the set happen
// under one lock acquisition.
func (s *Session) lock(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.imported[id]; ok {
		return false
	}
	if _, ok := s.locked[id]; ok {
		return false
	}
	s.locked[id] = struct{}{}
	return true
}

// ImportAll imports every candidate not yet imported, in order, as one
// update of the working minute. It returns the number of items added.
func (s *Session) ImportAll(cs []Candidate) int {
	s.saving.Lock()
	defer s.saving.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(cs))
	var eligible []Candidate
	for _, c := range cs {
		if _, ok := s.imported[c.OriginalTaskID]; ok {
			continue
		}
		if _, ok := s.locked[c.OriginalTaskID]; ok {
			continue
		}
		if _, ok := seen[c.OriginalTaskID]; ok {
			continue
		}
		seen[c.OriginalTaskID] = struct{}{}
		eligible = append(eligible, c)
	}

	for _, c := range eligible {
		place(s.doc, c.TopicSubject, ToInfoItem(c))
		s.imported[c.OriginalTaskID] = struct{}{}
	}
	s.lastUsed = time.Now()
	return len(eligible)
}

// Filter returns the candidates not yet imported in this session.
func (s *Session) Filter(cs []Candidate) []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Candidate
	for _, c := range cs {
		if _, ok := s.imported[c.OriginalTaskID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Minute returns a copy of the working minute.
func (s *Session) Minute() *models.Minute {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMinute(s.doc)
}

// replace swaps the working minute for the stored state after a save. The
// imported set is kept.
func (s *Session) replace(doc *models.Minute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = copyMinute(doc)
	for id := range doc.ImportedTaskIDs() {
		s.imported[id] = struct{}{}
	}
	s.lastUsed = time.Now()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// place appends item to the first topic named subject, creating the topic
// at the end of the minute when there is none.
func place(doc *models.Minute, subject string, item models.InfoItem) {
	item.MinuteID = doc.ID
	for i := range doc.Topics {
		t := &doc.Topics[i]
		if t.Subject == subject {
			item.TopicID = t.ID
			item.Position = len(t.Items)
			t.Items = append(t.Items, item)
			return
		}
	}
	t := models.Topic{
		ID:       uuid.NewString(),
		MinuteID: doc.ID,
		Position: len(doc.Topics),
		Subject:  subject,
		IsOpen:   true,
	}
	item.TopicID = t.ID
	t.Items = []models.InfoItem{item}
	doc.Topics = append(doc.Topics, t)
}

func copyMinute(m *models.Minute) *models.Minute {
	out := *m
	out.Topics = make([]models.Topic, len(m.Topics))
	for i, t := range m.Topics {
		t.Items = append([]models.InfoItem(nil), t.Items...)
		for j := range t.Items {
			t.Items[j].Responsibles = append([]string(nil), t.Items[j].Responsibles...)
			t.Items[j].Notes = append([]string(nil), t.Items[j].Notes...)
			t.Items[j].DueDate = copyTime(t.Items[j].DueDate)
		}
		out.Topics[i] = t
	}
	return &out
}
