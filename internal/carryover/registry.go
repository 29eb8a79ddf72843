package carryover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zulandar/minutes/internal/minute"
	"github.com/zulandar/minutes/internal/models"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("carryover: session not found")

// ErrUnknownTask is returned when an import names a task that is not
// pending for the session's minute.
var ErrUnknownTask = errors.New("carryover: task not pending")

// Registry owns the edit sessions of a process. Sessions end when closed or
// after being idle longer than the TTL.
type Registry struct {
	db  *gorm.DB
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry. A zero ttl disables expiry.
func NewRegistry(db *gorm.DB, ttl time.Duration) *Registry {
	return &Registry{
		db:       db,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Open starts an edit session on a draft minute.
func (r *Registry) Open(minuteID string) (*Session, error) {
	doc, err := minute.Get(r.db, minuteID)
	if err != nil {
		return nil, err
	}
	sess, err := NewSession(doc)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	return sess, nil
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch()
	return sess, nil
}

// Close ends a session, discarding unsaved imports.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Pending resolves the candidates of the session's minute that the session
// has not imported yet.
func (r *Registry) Pending(sess *Session) ([]Candidate, error) {
	cs, err := Resolve(r.db, sess.SeriesID(), sess.MinuteID())
	if err != nil {
		return nil, err
	}
	return sess.Filter(cs), nil
}

// ImportTask imports one pending task into the session. It reports false
// when the task was already imported.
func (r *Registry) ImportTask(sess *Session, originalTaskID string) (bool, error) {
	if sess.State(originalTaskID) != StateEligible {
		return false, nil
	}
	cs, err := r.Pending(sess)
	if err != nil {
		return false, err
	}
	for _, c := range cs {
		if c.OriginalTaskID == originalTaskID {
			return sess.Import(c), nil
		}
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownTask, originalTaskID)
}

// ImportAll imports every pending task into the session.
func (r *Registry) ImportAll(sess *Session) (int, error) {
	cs, err := r.Pending(sess)
	if err != nil {
		return 0, err
	}
	return sess.ImportAll(cs), nil
}

// Save writes the session's minute. On failure the session keeps its
// working copy and imported set so the save can be retried. Imports into
// the session wait until the save is done.
func (r *Registry) Save(sess *Session) (*models.Minute, error) {
	sess.saving.Lock()
	defer sess.saving.Unlock()
	saved, err := minute.Save(r.db, sess.Minute())
	if err != nil {
		return nil, err
	}
	sess.replace(saved)
	return saved, nil
}

// Reap closes sessions idle for longer than the TTL and returns how many
// were closed.
func (r *Registry) Reap(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, sess := range r.sessions {
		if now.Sub(sess.idleSince()) > r.ttl {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run reaps expired sessions every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Reap(now); n > 0 {
				log.Printf("carryover: reaped %d idle sessions", n)
			}
		}
	}
}
