package task

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/minutes/internal/db"
	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/series"
	"gorm.io/gorm"
)

func testDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	gormDB, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	s, err := series.Create(gormDB, "Weekly sync", "platform")
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	return gormDB, s.ID
}

func TestGenerateID_Format(t *testing.T) {
	id, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID() error: %v", err)
	}
	if !strings.HasPrefix(id, "task-") {
		t.Errorf("ID %q missing task- prefix", id)
	}
	if len(id) != 10 {
		t.Errorf("ID length = %d, want 10; id = %q", len(id), id)
	}
}

func TestCreate_Defaults(t *testing.T) {
	gormDB, seriesID := testDB(t)

	tk, err := Create(gormDB, CreateOpts{Subject: "Write agenda", SeriesID: seriesID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.Status != models.StatusOpen {
		t.Errorf("Status = %q, want open", tk.Status)
	}
	if tk.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", tk.Priority)
	}
	if tk.MinutesID != nil || tk.SourceTaskID != nil {
		t.Errorf("expected nil pointers, got minutes=%v source=%v", tk.MinutesID, tk.SourceTaskID)
	}
}

func TestCreate_Validation(t *testing.T) {
	gormDB, seriesID := testDB(t)

	tests := []struct {
		name string
		opts CreateOpts
		want string
	}{
		{"no subject", CreateOpts{SeriesID: seriesID}, "subject is required"},
		{"no series", CreateOpts{Subject: "x"}, "series is required"},
		{"unknown series", CreateOpts{Subject: "x", SeriesID: "nope"}, "series not found"},
		{"bad status", CreateOpts{Subject: "x", SeriesID: seriesID, Status: "done"}, "invalid status"},
		{"bad priority", CreateOpts{Subject: "x", SeriesID: seriesID, Priority: "urgent"}, "invalid priority"},
		{"unknown source", CreateOpts{Subject: "x", SeriesID: seriesID, SourceTaskID: "task-00000"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(gormDB, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestCreate_OneSuccessorPerSource(t *testing.T) {
	gormDB, seriesID := testDB(t)

	root, err := Create(gormDB, CreateOpts{Subject: "root", SeriesID: seriesID})
	if err != nil {
		t.Fatalf("Create root: %v", err)
	}
	if _, err := Create(gormDB, CreateOpts{Subject: "next", SeriesID: seriesID, SourceTaskID: root.ID}); err != nil {
		t.Fatalf("Create successor: %v", err)
	}
	_, err = Create(gormDB, CreateOpts{Subject: "again", SeriesID: seriesID, SourceTaskID: root.ID})
	if !errors.Is(err, ErrLineageTaken) {
		t.Fatalf("err = %v, want ErrLineageTaken", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	gormDB, _ := testDB(t)
	_, err := Get(gormDB, "task-xxxxx")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestList_Filters(t *testing.T) {
	gormDB, seriesID := testDB(t)

	a, _ := Create(gormDB, CreateOpts{Subject: "a", SeriesID: seriesID, Responsibles: []string{"ana"}})
	b, _ := Create(gormDB, CreateOpts{Subject: "b", SeriesID: seriesID, Status: models.StatusCompleted, Responsibles: []string{"ben"}})
	Create(gormDB, CreateOpts{Subject: "c", SeriesID: seriesID, Status: models.StatusInProgress, Responsibles: []string{"ana", "ben"}})

	all, err := List(gormDB, ListFilters{SeriesID: seriesID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}

	done, _ := List(gormDB, ListFilters{Status: models.StatusCompleted})
	if len(done) != 1 || done[0].ID != b.ID {
		t.Errorf("completed = %+v, want only %s", done, b.ID)
	}

	open, _ := List(gormDB, ListFilters{OpenOnly: true})
	if len(open) != 2 {
		t.Errorf("open-only = %d, want 2", len(open))
	}

	ana, _ := List(gormDB, ListFilters{Responsible: "ana"})
	if len(ana) != 2 {
		t.Fatalf("responsible ana = %+v, want 2 tasks", ana)
	}
	if ana[0].ID != a.ID && ana[1].ID != a.ID {
		t.Errorf("responsible ana missing %s: %+v", a.ID, ana)
	}
}

func TestUpdate_TypedChanges(t *testing.T) {
	gormDB, seriesID := testDB(t)
	tk, _ := Create(gormDB, CreateOpts{Subject: "old", SeriesID: seriesID})

	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	updated, err := Update(gormDB, tk.ID,
		SetSubject("new"),
		SetPriority(models.PriorityHigh),
		SetDueDate(due),
		SetResponsibles{"ana", "ben"},
		SetStatus(models.StatusCompleted),
	)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Error("CompletedAt should be stamped on completion")
	}

	got, err := Get(gormDB, tk.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Subject != "new" || got.Priority != models.PriorityHigh || got.Status != models.StatusCompleted {
		t.Errorf("got = %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, due)
	}
	if len(got.Responsibles) != 2 || got.Responsibles[1] != "ben" {
		t.Errorf("Responsibles = %v", got.Responsibles)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not persisted")
	}

	// Reopening clears the completion stamp; clearing the due date works.
	if _, err := Update(gormDB, tk.ID, SetStatus(models.StatusOpen), ClearDueDate{}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ = Get(gormDB, tk.ID)
	if got.CompletedAt != nil || got.DueDate != nil {
		t.Errorf("after reopen: completed=%v due=%v, want nil", got.CompletedAt, got.DueDate)
	}
}

func TestUpdate_InvalidChangeWritesNothing(t *testing.T) {
	gormDB, seriesID := testDB(t)
	tk, _ := Create(gormDB, CreateOpts{Subject: "keep", SeriesID: seriesID, Status: models.StatusCancelled})

	_, err := Update(gormDB, tk.ID, SetSubject("changed"), SetStatus(models.StatusCompleted))
	if err == nil {
		t.Fatal("expected invalid transition error")
	}
	if !errors.Is(err, ErrInvalidChange) || !strings.Contains(err.Error(), "invalid status transition") {
		t.Errorf("error = %q", err.Error())
	}
	got, _ := Get(gormDB, tk.ID)
	if got.Subject != "keep" {
		t.Errorf("Subject = %q, partial update leaked", got.Subject)
	}

	if _, err := Update(gormDB, tk.ID, SetPriority("urgent")); err == nil {
		t.Error("expected invalid priority error")
	}
	if _, err := Update(gormDB, tk.ID, SetSubject("")); err == nil {
		t.Error("expected empty subject error")
	}
	if _, err := Update(gormDB, "task-none", SetSubject("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddNote(t *testing.T) {
	gormDB, seriesID := testDB(t)
	tk, _ := Create(gormDB, CreateOpts{Subject: "s", SeriesID: seriesID})

	if _, err := AddNote(gormDB, tk.ID, "ana", "first"); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if _, err := AddNote(gormDB, tk.ID, "ben", "second"); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if _, err := AddNote(gormDB, tk.ID, "ben", ""); err == nil {
		t.Error("expected error for empty body")
	}
	if _, err := AddNote(gormDB, "task-none", "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	got, _ := Get(gormDB, tk.ID)
	if len(got.Notes) != 2 || got.Notes[0].Body != "first" {
		t.Errorf("Notes = %+v", got.Notes)
	}
}

func TestLink_LastWriterWins(t *testing.T) {
	gormDB, seriesID := testDB(t)
	tk, _ := Create(gormDB, CreateOpts{Subject: "s", SeriesID: seriesID, MinutesID: "m1", TopicID: "t1"})

	prev, err := Link(gormDB, tk.ID, Pointer{MinutesID: "m2", TopicID: "t2"})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if prev.MinutesID != "m1" || prev.TopicID != "t1" {
		t.Errorf("prev = %+v, want m1/t1", prev)
	}
	got, _ := Get(gormDB, tk.ID)
	if *got.MinutesID != "m2" || *got.TopicID != "t2" {
		t.Errorf("pointer = %s/%s, want m2/t2", *got.MinutesID, *got.TopicID)
	}

	if _, err := Link(gormDB, "task-none", Pointer{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLineage(t *testing.T) {
	gormDB, seriesID := testDB(t)
	root, _ := Create(gormDB, CreateOpts{Subject: "r", SeriesID: seriesID})
	mid, _ := Create(gormDB, CreateOpts{Subject: "m", SeriesID: seriesID, SourceTaskID: root.ID})
	leaf, _ := Create(gormDB, CreateOpts{Subject: "l", SeriesID: seriesID, SourceTaskID: mid.ID})

	chain, err := Lineage(gormDB, leaf.ID)
	if err != nil {
		t.Fatalf("Lineage: %v", err)
	}
	if len(chain) != 3 || chain[0].ID != leaf.ID || chain[2].ID != root.ID {
		t.Errorf("chain = %v", chain)
	}
}

func TestLineage_DetectsCycle(t *testing.T) {
	gormDB, seriesID := testDB(t)
	a, _ := Create(gormDB, CreateOpts{Subject: "a", SeriesID: seriesID})
	b, _ := Create(gormDB, CreateOpts{Subject: "b", SeriesID: seriesID, SourceTaskID: a.ID})
	// Corrupt the data directly; the store never creates cycles itself.
	gormDB.Model(&models.Task{}).Where("id = ?", a.ID).Update("source_task_id", b.ID)

	_, err := Lineage(gormDB, b.ID)
	if !errors.Is(err, ErrLineageCycle) {
		t.Fatalf("err = %v, want ErrLineageCycle", err)
	}
}
