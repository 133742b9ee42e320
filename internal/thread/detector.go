// Package thread partitions a chronological message stream into logical
// conversation threads using a time-gap rule with a content-similarity
// fallback, and detects likely continuations across longer gaps.
package thread

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/wkerr/chatarchive/internal/archive"
)

// Thread is a derived, non-persistent aggregate of consecutive messages.
type Thread struct {
	ID              int
	Messages        []archive.Message
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes float64
	Participants    []string
	TopicSummary    string
}

// Detector groups messages into threads. The constants are empirically
// chosen; treat them as tunables, not semantics.
type Detector struct {
	// TimeGapHours is the maximum gap between consecutive messages in one
	// thread. Gaps above half this value additionally require content
	// similarity.
	TimeGapHours float64

	// SimilarityThreshold is the minimum Jaccard similarity for a message to
	// join a thread across a half-window gap.
	SimilarityThreshold float64
}

// NewDetector returns a Detector with the default 4-hour gap and 0.3
// similarity threshold.
func NewDetector() *Detector {
	return &Detector{TimeGapHours: 4, SimilarityThreshold: 0.3}
}

// similarityWindow is how many trailing thread messages contribute
// vocabulary to the half-window similarity check.
const similarityWindow = 5

// DetectThreads partitions messages into threads. Input need not be sorted;
// messages are ordered by timestamp ascending first. The function is pure
// and deterministic: identical input always yields identical boundaries.
// A message with no parseable timestamp forces a thread break rather than
// an error; segmentation is total over any input.
func (d *Detector) DetectThreads(messages []archive.Message) []Thread {
	if len(messages) == 0 {
		return []Thread{}
	}

	sorted := make([]archive.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var threads []Thread
	var current []archive.Message

	for _, msg := range sorted {
		if len(current) == 0 {
			current = []archive.Message{msg}
			continue
		}
		if d.belongs(msg, current) {
			current = append(current, msg)
		} else {
			threads = append(threads, buildThread(current, len(threads)))
			current = []archive.Message{msg}
		}
	}
	threads = append(threads, buildThread(current, len(threads)))

	return threads
}

// belongs decides whether msg continues the current thread.
func (d *Detector) belongs(msg archive.Message, current []archive.Message) bool {
	last := current[len(current)-1]
	gap := gapHours(last.Timestamp, msg.Timestamp)

	if gap > d.TimeGapHours {
		return false
	}
	if gap > d.TimeGapHours/2 {
		// Borderline gap: only stay in the thread if the message shares
		// vocabulary with the recent conversation.
		return d.similarity(msg, current) >= d.SimilarityThreshold
	}
	return true
}

// gapHours is the absolute gap between two timestamps in hours. A zero
// timestamp means the row's date was malformed; treat it as an infinite gap
// so the message starts its own thread instead of crashing segmentation.
func gapHours(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return math.Inf(1)
	}
	return math.Abs(b.Sub(a).Hours())
}

// similarity is the Jaccard similarity between msg's word set and the union
// of word sets from the thread's trailing messages.
func (d *Detector) similarity(msg archive.Message, current []archive.Message) float64 {
	msgWords := tokenize(msg.ResolvedText())
	if len(msgWords) == 0 {
		return 0
	}

	start := len(current) - similarityWindow
	if start < 0 {
		start = 0
	}
	threadWords := make(map[string]bool)
	for _, m := range current[start:] {
		for w := range tokenize(m.ResolvedText()) {
			threadWords[w] = true
		}
	}
	if len(threadWords) == 0 {
		return 0
	}

	intersection := 0
	union := len(threadWords)
	for w := range msgWords {
		if threadWords[w] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// tokenize lowercases, NFC-normalizes, and splits text into a word set.
func tokenize(text string) map[string]bool {
	words := make(map[string]bool)
	if text == "" {
		return words
	}
	text = norm.NFC.String(strings.ToLower(text))
	for _, w := range wordPattern.FindAllString(text, -1) {
		words[w] = true
	}
	return words
}

// buildThread derives the Thread aggregate from an ordered message run.
func buildThread(messages []archive.Message, id int) Thread {
	t := Thread{
		ID:        id,
		Messages:  messages,
		StartTime: messages[0].Timestamp,
		EndTime:   messages[len(messages)-1].Timestamp,
	}

	if !t.StartTime.IsZero() && !t.EndTime.IsZero() && len(messages) > 1 {
		minutes := t.EndTime.Sub(t.StartTime).Minutes()
		t.DurationMinutes = math.Round(minutes*10) / 10
	}

	seen := make(map[string]bool)
	for _, m := range messages {
		p := m.Sender
		if m.IsFromMe {
			p = archive.OwnerSender
		}
		if p != "" && !seen[p] {
			seen[p] = true
			t.Participants = append(t.Participants, p)
		}
	}
	sort.Strings(t.Participants)

	t.TopicSummary = summarize(messages)
	return t
}

// summarize picks the first message with more than 10 characters of text,
// truncated to 100 characters with an ellipsis.
func summarize(messages []archive.Message) string {
	for _, m := range messages {
		text := strings.TrimSpace(m.ResolvedText())
		if len([]rune(text)) > 10 {
			runes := []rune(text)
			if len(runes) > 100 {
				return string(runes[:100]) + "..."
			}
			return text
		}
	}
	return "No content"
}
