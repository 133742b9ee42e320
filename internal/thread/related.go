package thread

import (
	"sort"
	"time"

	"github.com/wkerr/chatarchive/internal/archive"
)

// stopwords are dropped before comparing thread vocabularies: articles,
// pronouns, auxiliary verbs, and determiners carry no topical signal.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"i": true, "you": true, "we": true, "they": true, "it": true,
	"is": true, "are": true, "was": true, "were": true, "been": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true,
	"this": true, "that": true, "these": true, "those": true,
}

// relatedEdgeCount is how many messages from each thread edge contribute to
// the relatedness vocabulary: the last N of the earlier thread and the first
// N of the later one.
const relatedEdgeCount = 3

// relatedOverlapThreshold is the minimum overlap/min(|A|,|B|) ratio for two
// threads to count as related.
const relatedOverlapThreshold = 0.3

// FindRelatedThreads groups thread indices that look like continuations of
// one conversation across gaps longer than the segmenter's window.
//
// Grouping is a greedy single pass: each unprocessed thread anchors a group
// of all later unprocessed threads related to it. Relatedness is tested
// against the anchor only, so two non-adjacent members of a group are not
// guaranteed related to each other. Only groups with at least two members
// are returned.
func (d *Detector) FindRelatedThreads(threads []Thread, maxDaysApart int) [][]int {
	var groups [][]int
	processed := make(map[int]bool)

	for i := range threads {
		if processed[i] {
			continue
		}
		group := []int{i}
		processed[i] = true

		for j := i + 1; j < len(threads); j++ {
			if processed[j] {
				continue
			}
			if related(&threads[i], &threads[j], maxDaysApart) {
				group = append(group, j)
				processed[j] = true
			}
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	return groups
}

// related reports whether two threads plausibly continue one conversation.
func related(earlier, later *Thread, maxDaysApart int) bool {
	if earlier.EndTime.IsZero() || later.StartTime.IsZero() {
		return false
	}
	if daysApart(earlier.EndTime, later.StartTime) > maxDaysApart {
		return false
	}

	words1 := tailWords(earlier.Messages, relatedEdgeCount)
	words2 := headWords(later.Messages, relatedEdgeCount)
	for w := range stopwords {
		delete(words1, w)
		delete(words2, w)
	}
	if len(words1) == 0 || len(words2) == 0 {
		return false
	}

	overlap := 0
	for w := range words1 {
		if words2[w] {
			overlap++
		}
	}
	minSize := len(words1)
	if len(words2) < minSize {
		minSize = len(words2)
	}
	return float64(overlap)/float64(minSize) >= relatedOverlapThreshold
}

// daysApart is the absolute whole-day distance between two timestamps.
func daysApart(a, b time.Time) int {
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// tailWords tokenizes the last n messages of a thread into one word set.
func tailWords(messages []archive.Message, n int) map[string]bool {
	start := len(messages) - n
	if start < 0 {
		start = 0
	}
	return unionWords(messages[start:])
}

// headWords tokenizes the first n messages of a thread into one word set.
func headWords(messages []archive.Message, n int) map[string]bool {
	if n > len(messages) {
		n = len(messages)
	}
	return unionWords(messages[:n])
}

func unionWords(messages []archive.Message) map[string]bool {
	words := make(map[string]bool)
	for _, m := range messages {
		for w := range tokenize(m.ResolvedText()) {
			words[w] = true
		}
	}
	return words
}

// MergeThreads concatenates the messages of the given thread indices,
// re-sorts chronologically, and derives a fresh Thread reusing the first
// given id. Out-of-range indices are skipped.
func (d *Detector) MergeThreads(threads []Thread, ids []int) Thread {
	if len(ids) == 0 {
		return Thread{}
	}

	var all []archive.Message
	for _, id := range ids {
		if id >= 0 && id < len(threads) {
			all = append(all, threads[id].Messages...)
		}
	}
	if len(all) == 0 {
		return Thread{}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return buildThread(all, ids[0])
}
