// Package history records completed searches to a JSON side-store.
// Recording is append-only with capped retention and must never fail the
// search that triggered it.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/wkerr/chatarchive/internal/archive"
)

// maxEntries caps retention; older searches fall off the end.
const maxEntries = 100

// Criteria is the normalized filter set of a recorded search.
type Criteria struct {
	Content   string `json:"content,omitempty"`
	Sender    string `json:"sender,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Entry is one recorded search, newest first in the file.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Criteria    Criteria  `json:"criteria"`
	ResultCount int64     `json:"result_count"`
}

// Store persists search history to a JSON file.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	now     func() time.Time
}

// Open loads or creates a history store at path. A missing file starts
// empty; an unreadable or corrupt file is treated as empty rather than
// failing, since history is best-effort by contract.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	s := &Store{path: path, now: time.Now}
	data, err := os.ReadFile(path)
	if err == nil {
		// Corrupt history is discarded, not fatal.
		_ = json.Unmarshal(data, &s.entries)
	}
	return s, nil
}

// RecordSearch implements archive.SearchRecorder: it prepends the search,
// trims to the retention cap, and rewrites the file.
func (s *Store) RecordSearch(f archive.Filters, totalCount int64) error {
	c := Criteria{
		Content: f.Content,
		Sender:  f.Sender,
	}
	if f.StartDate != nil {
		c.StartDate = f.StartDate.Format("2006-01-02")
	}
	if f.EndDate != nil {
		c.EndDate = f.EndDate.Format("2006-01-02")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]Entry{{
		Timestamp:   s.now(),
		Criteria:    c,
		ResultCount: totalCount,
	}}, s.entries...)
	if len(s.entries) > maxEntries {
		s.entries = s.entries[:maxEntries]
	}
	return s.save()
}

// save rewrites the history file. Caller holds the lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Recent returns the newest entries, up to limit.
func (s *Store) Recent(limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 1 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]Entry, limit)
	copy(out, s.entries[:limit])
	return out
}

// Popular returns entries sorted by result count, largest first, up to limit.
func (s *Store) Popular(limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ResultCount > out[j].ResultCount
	})
	if limit >= 1 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Clear removes all recorded searches.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	return s.save()
}
