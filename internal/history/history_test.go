package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wkerr/chatarchive/internal/archive"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "search_history.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	tick := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	searches := []archive.Filters{
		{Content: "first"},
		{Content: "second", Sender: "+15551234567"},
		{StartDate: &start},
	}
	for i, f := range searches {
		if err := s.RecordSearch(f, int64(i+1)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	recent := s.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("got %d entries, want 2", len(recent))
	}
	if recent[0].Criteria.StartDate != "2026-03-01" {
		t.Errorf("newest entry = %+v, want the date search first", recent[0])
	}
	if recent[1].Criteria.Content != "second" {
		t.Errorf("second entry = %+v", recent[1])
	}
	if !recent[0].Timestamp.After(recent[1].Timestamp) {
		t.Error("entries not newest first")
	}
}

func TestRecentLimitLargerThanStore(t *testing.T) {
	s := openTestStore(t)
	if err := s.RecordSearch(archive.Filters{Content: "only"}, 1); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := s.Recent(50); len(got) != 1 {
		t.Errorf("got %d entries, want 1", len(got))
	}
}

func TestRetentionCap(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < maxEntries+20; i++ {
		if err := s.RecordSearch(archive.Filters{Content: fmt.Sprintf("q%d", i)}, int64(i)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	all := s.Recent(0)
	if len(all) != maxEntries {
		t.Fatalf("got %d entries, want cap of %d", len(all), maxEntries)
	}
	if all[0].Criteria.Content != fmt.Sprintf("q%d", maxEntries+19) {
		t.Errorf("newest entry = %q, oldest entries should have been trimmed", all[0].Criteria.Content)
	}
}

func TestPopular(t *testing.T) {
	s := openTestStore(t)
	counts := []int64{5, 50, 20}
	for i, c := range counts {
		if err := s.RecordSearch(archive.Filters{Content: fmt.Sprintf("q%d", i)}, c); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	popular := s.Popular(2)
	if len(popular) != 2 {
		t.Fatalf("got %d entries, want 2", len(popular))
	}
	if popular[0].ResultCount != 50 || popular[1].ResultCount != 20 {
		t.Errorf("popular counts = %d, %d, want 50, 20",
			popular[0].ResultCount, popular[1].ResultCount)
	}
}

func TestClearAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_history.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.RecordSearch(archive.Filters{Content: "persisted"}, 3); err != nil {
		t.Fatalf("record: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if got := reloaded.Recent(0); len(got) != 1 || got[0].Criteria.Content != "persisted" {
		t.Fatalf("reloaded entries = %+v", got)
	}

	if err := reloaded.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after clear: %v", err)
	}
	if got := again.Recent(0); len(got) != 0 {
		t.Errorf("entries after clear = %+v, want none", got)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open should tolerate corrupt history: %v", err)
	}
	if got := s.Recent(0); len(got) != 0 {
		t.Errorf("corrupt history should start empty, got %+v", got)
	}
}
