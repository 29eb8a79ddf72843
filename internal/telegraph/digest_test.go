package telegraph

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/minutes/internal/db"
	"github.com/zulandar/minutes/internal/minute"
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

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func seedMinute(t *testing.T, gormDB *gorm.DB, seriesID string) {
	t.Helper()
	due := date(2026, 10, 5)
	later := date(2026, 12, 1)
	_, err := minute.Create(gormDB, minute.CreateOpts{
		SeriesID: seriesID,
		Date:     date(2026, 10, 1),
		Topics: []models.Topic{{
			Subject: "Release",
			Items: []models.InfoItem{
				{ItemType: models.ItemTypeAction, Subject: "Tag v2", Priority: models.PriorityHigh, DueDate: &due, Responsibles: []string{"ana", "li"}},
				{ItemType: models.ItemTypeAction, Subject: "Write notes", DueDate: &later},
				{ItemType: models.ItemTypeAction, Subject: "Old", Status: models.StatusCompleted},
				{Subject: "FYI"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("create minute: %v", err)
	}
}

func TestBuildDigest(t *testing.T) {
	gormDB, seriesID := testDB(t)
	seedMinute(t, gormDB, seriesID)

	d, err := BuildDigest(gormDB, seriesID, date(2026, 10, 18))
	if err != nil {
		t.Fatalf("BuildDigest: %v", err)
	}
	if d.Series.Name != "Weekly sync" {
		t.Errorf("Series = %q", d.Series.Name)
	}
	if len(d.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(d.Items))
	}
	if d.Overdue != 1 {
		t.Errorf("Overdue = %d, want 1", d.Overdue)
	}
}

func TestBuildDigest_UnknownSeries(t *testing.T) {
	gormDB, _ := testDB(t)
	_, err := BuildDigest(gormDB, "missing", time.Now())
	if !errors.Is(err, series.ErrNotFound) {
		t.Errorf("err = %v, want series.ErrNotFound", err)
	}
}

func TestIsOverdue_DueTodayIsNotOverdue(t *testing.T) {
	now := date(2026, 10, 18)
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	yesterday := today.Add(-time.Hour)
	if isOverdue(carryoverCandidate(&today), now) {
		t.Error("item due today reported overdue")
	}
	if !isOverdue(carryoverCandidate(&yesterday), now) {
		t.Error("item due yesterday not reported overdue")
	}
	if isOverdue(carryoverCandidate(nil), now) {
		t.Error("item without due date reported overdue")
	}
}

func TestFormatDigest(t *testing.T) {
	gormDB, seriesID := testDB(t)
	seedMinute(t, gormDB, seriesID)
	d, err := BuildDigest(gormDB, seriesID, date(2026, 10, 18))
	if err != nil {
		t.Fatal(err)
	}

	msg := FormatDigest(d, "C1")
	if msg.ChannelID != "C1" {
		t.Errorf("ChannelID = %q", msg.ChannelID)
	}
	if msg.Text != "*Weekly sync*: 2 open action items (1 overdue)" {
		t.Errorf("Text = %q", msg.Text)
	}
	if len(msg.Events) != 2 {
		t.Fatalf("events = %d", len(msg.Events))
	}
	tag := msg.Events[0]
	if tag.Title != "Tag v2" || tag.Color != ColorError {
		t.Errorf("overdue event = %+v", tag)
	}
	var fields []string
	for _, f := range tag.Fields {
		fields = append(fields, f.Name+"="+f.Value)
	}
	joined := strings.Join(fields, ";")
	for _, want := range []string{"Priority=high", "Due=2026-10-05 (overdue)", "Responsible=ana, li", "From=2026-10-01 / Release"} {
		if !strings.Contains(joined, want) {
			t.Errorf("fields %q missing %q", joined, want)
		}
	}
	if msg.Events[1].Color != ColorInfo {
		t.Errorf("plain event color = %q", msg.Events[1].Color)
	}
}

func TestFormatDigest_Empty(t *testing.T) {
	d := &Digest{Series: models.Series{Name: "Retro"}}
	msg := FormatDigest(d, "C1")
	if msg.Text != "*Retro*: no open action items" || len(msg.Events) != 0 {
		t.Errorf("msg = %+v", msg)
	}
}

func TestSendDigests(t *testing.T) {
	gormDB, seriesID := testDB(t)
	seedMinute(t, gormDB, seriesID)
	adapter := NewMockAdapter()

	err := SendDigests(context.Background(), gormDB, adapter, "C1", []string{seriesID, "missing"})
	if !errors.Is(err, series.ErrNotFound) {
		t.Errorf("err = %v, want the missing series error", err)
	}
	sent := adapter.Sent()
	if len(sent) != 1 || !strings.HasPrefix(sent[0].Text, "*Weekly sync*") {
		t.Errorf("sent = %+v", sent)
	}

	adapter.SetSendError(errors.New("boom"))
	if err := SendDigests(context.Background(), gormDB, adapter, "C1", []string{seriesID}); err == nil {
		t.Error("expected send error")
	}
}
