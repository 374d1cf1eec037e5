package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNavCollapsedRoundTrip(t *testing.T) {
	s := openTestStore(t)

	collapsed, err := s.NavCollapsed()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if collapsed {
		t.Error("fresh store defaults to expanded")
	}

	if err := s.SetNavCollapsed(true); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	collapsed, err = s.NavCollapsed()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !collapsed {
		t.Error("expected collapsed after write")
	}

	// Toggling back replaces, not duplicates.
	if err := s.SetNavCollapsed(false); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if collapsed, _ = s.NavCollapsed(); collapsed {
		t.Error("expected expanded after second write")
	}
}

func TestJournal(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordAction("promote", "item 7 -> economy"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := s.RecordAction("regenerate", "facebook for economy"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	actions, err := s.RecentActions(10)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("got %d actions", len(actions))
	}
	// Newest first.
	if actions[0].Kind != "regenerate" || actions[1].Kind != "promote" {
		t.Errorf("order = %s, %s", actions[0].Kind, actions[1].Kind)
	}
	if actions[1].Detail != "item 7 -> economy" {
		t.Errorf("detail = %q", actions[1].Detail)
	}
}

func TestRecentActionsLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.RecordAction("promote", "x"); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	actions, err := s.RecentActions(3)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(actions) != 3 {
		t.Errorf("got %d actions, want 3", len(actions))
	}
}

func TestGetStats(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.GetStats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.JournalEntries != 0 {
		t.Errorf("fresh store reports %d entries", stats.JournalEntries)
	}

	s.RecordAction("promote", "a")
	s.RecordAction("promote", "b")
	s.RecordAction("regenerate", "c")

	stats, err = s.GetStats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.JournalEntries != 3 || stats.Promotions != 2 || stats.Regenerations != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	s.SetNavCollapsed(true)
	s.RecordAction("promote", "x")
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if collapsed, _ := s.NavCollapsed(); !collapsed {
		t.Error("preference lost on reopen")
	}
	stats, _ := s.GetStats()
	if stats.JournalEntries != 1 {
		t.Error("journal lost on reopen")
	}
}
