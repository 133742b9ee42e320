package thread

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wkerr/chatarchive/internal/archive"
)

func strPtr(s string) *string { return &s }

func msgAt(at time.Time, text, sender string) archive.Message {
	m := archive.Message{Timestamp: at, Sender: sender}
	if text != "" {
		m.Text = strPtr(text)
	}
	return m
}

func TestDetectThreadsEmpty(t *testing.T) {
	d := NewDetector()
	threads := d.DetectThreads(nil)
	if threads == nil || len(threads) != 0 {
		t.Errorf("got %v, want empty non-nil slice", threads)
	}
}

func TestDetectThreadsSingleMessage(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	threads := d.DetectThreads([]archive.Message{msgAt(base, "hello", "+15551234567")})
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1", len(threads))
	}
	th := threads[0]
	if th.ID != 0 || len(th.Messages) != 1 {
		t.Errorf("thread = %+v", th)
	}
	if th.DurationMinutes != 0 {
		t.Errorf("DurationMinutes = %v, want 0 for single message", th.DurationMinutes)
	}
}

func TestDetectThreadsGapBoundary(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Messages at T, T+1h, T+6h, T+6h5m: the 5-hour gap exceeds the 4-hour
	// window and splits the stream into two threads of two.
	msgs := []archive.Message{
		msgAt(base, "want to grab lunch", "a"),
		msgAt(base.Add(1*time.Hour), "sure, noon works", "a"),
		msgAt(base.Add(6*time.Hour), "that was great", "a"),
		msgAt(base.Add(6*time.Hour+5*time.Minute), "same time next week?", "a"),
	}
	threads := d.DetectThreads(msgs)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	if len(threads[0].Messages) != 2 || len(threads[1].Messages) != 2 {
		t.Errorf("thread sizes = %d, %d, want 2, 2",
			len(threads[0].Messages), len(threads[1].Messages))
	}
	if threads[0].ID != 0 || threads[1].ID != 1 {
		t.Errorf("thread ids = %d, %d, want sequential from 0", threads[0].ID, threads[1].ID)
	}
}

func TestDetectThreadsUnsortedInput(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	msgs := []archive.Message{
		msgAt(base.Add(6*time.Hour), "later message", "a"),
		msgAt(base, "earlier message", "a"),
	}
	threads := d.DetectThreads(msgs)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	if !threads[0].StartTime.Equal(base) {
		t.Errorf("first thread starts at %v, want the earlier timestamp", threads[0].StartTime)
	}
}

func TestDetectThreadsBorderlineGapSimilarity(t *testing.T) {
	// With a 6-hour window, a 4.5-hour gap lands in the similarity zone
	// (above 3, at most 6): shared vocabulary keeps the thread together,
	// disjoint vocabulary splits it.
	d := &Detector{TimeGapHours: 6, SimilarityThreshold: 0.3}
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	joined := d.DetectThreads([]archive.Message{
		msgAt(base, "dinner at the thai place", "a"),
		msgAt(base.Add(4*time.Hour+30*time.Minute), "thai place dinner confirmed", "a"),
	})
	if len(joined) != 1 {
		t.Errorf("similar messages across borderline gap: got %d threads, want 1", len(joined))
	}

	split := d.DetectThreads([]archive.Message{
		msgAt(base, "dinner at the thai place", "a"),
		msgAt(base.Add(4*time.Hour+30*time.Minute), "unrelated quarterly budget question", "a"),
	})
	if len(split) != 2 {
		t.Errorf("dissimilar messages across borderline gap: got %d threads, want 2", len(split))
	}
}

func TestDetectThreadsZeroTimestampBreaks(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	msgs := []archive.Message{
		msgAt(base, "first", "a"),
		msgAt(time.Time{}, "no timestamp", "a"),
	}
	threads := d.DetectThreads(msgs)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2 (malformed date forces a break)", len(threads))
	}
}

func TestDetectThreadsDeterministic(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	msgs := []archive.Message{
		msgAt(base, "alpha beta gamma", "a"),
		msgAt(base.Add(30*time.Minute), "delta epsilon", "b"),
		msgAt(base.Add(5*time.Hour), "zeta eta", "a"),
	}
	first := d.DetectThreads(msgs)
	second := d.DetectThreads(msgs)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical input produced different threads:\n%s", diff)
	}
}

func TestThreadParticipants(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mine := msgAt(base.Add(time.Minute), "my reply here", "+15551234567")
	mine.IsFromMe = true
	msgs := []archive.Message{
		msgAt(base, "their message", "+15551234567"),
		mine,
	}
	threads := d.DetectThreads(msgs)
	want := []string{archive.OwnerSender, "+15551234567"}
	if diff := cmp.Diff(want, threads[0].Participants); diff != "" {
		t.Errorf("participants mismatch:\n%s", diff)
	}
}

func TestThreadDuration(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	msgs := []archive.Message{
		msgAt(base, "start", "a"),
		msgAt(base.Add(12*time.Minute+30*time.Second), "end", "a"),
	}
	threads := d.DetectThreads(msgs)
	if got := threads[0].DurationMinutes; got != 12.5 {
		t.Errorf("DurationMinutes = %v, want 12.5", got)
	}
}

func TestSummarize(t *testing.T) {
	d := NewDetector()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("skips short messages", func(t *testing.T) {
		threads := d.DetectThreads([]archive.Message{
			msgAt(base, "ok", "a"),
			msgAt(base.Add(time.Minute), "the plan for saturday morning", "a"),
		})
		if got := threads[0].TopicSummary; got != "the plan for saturday morning" {
			t.Errorf("TopicSummary = %q", got)
		}
	})

	t.Run("truncates long text", func(t *testing.T) {
		long := strings.Repeat("w", 150)
		threads := d.DetectThreads([]archive.Message{msgAt(base, long, "a")})
		want := strings.Repeat("w", 100) + "..."
		if got := threads[0].TopicSummary; got != want {
			t.Errorf("TopicSummary length = %d, want 103", len(got))
		}
	})

	t.Run("no qualifying text", func(t *testing.T) {
		threads := d.DetectThreads([]archive.Message{msgAt(base, "hi", "a")})
		if got := threads[0].TopicSummary; got != "No content" {
			t.Errorf("TopicSummary = %q, want fallback", got)
		}
	})
}

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, WORLD! it's 2026_ok")
	want := map[string]bool{
		"hello": true, "world": true, "it": true, "s": true, "2026_ok": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokenize mismatch:\n%s", diff)
	}
	if len(tokenize("")) != 0 {
		t.Error("empty text should produce no words")
	}
}
