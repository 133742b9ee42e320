// Package richtext recovers message text from attributedBody blobs.
//
// When Messages stores a formatted message, the plain text column is NULL and
// the content lives in an NSKeyedArchiver-serialized attributed string. The
// archive stores objects in a flat $objects array and references them by
// integer index (UID) instead of nesting. Decode walks that structure first
// and falls back to progressively cruder byte-level recovery when the archive
// is truncated or from an unknown variant.
package richtext

import (
	"regexp"
	"strings"
	"unicode"

	"howett.net/plist"
)

// tier attempts one recovery strategy. It reports ok=false when the strategy
// found no plausible message text.
type tier func(payload []byte) (text string, ok bool)

var tiers = []tier{decodeKeyedArchive, scanPrintableRuns, scrubASCII}

// Decode extracts human-readable text from an attributedBody payload.
// It returns ok=false only if no tier finds message-shaped text. Decode never
// panics and performs no I/O; a failed tier simply hands off to the next one.
func Decode(payload []byte) (string, bool) {
	if len(payload) == 0 {
		return "", false
	}
	for _, t := range tiers {
		if text, ok := t(payload); ok {
			return text, true
		}
	}
	return "", false
}

// scaffoldTokens are archiver structural markers that can never be user text.
var scaffoldTokens = map[string]bool{
	"$archiver":                  true,
	"$null":                      true,
	"$top":                       true,
	"$objects":                   true,
	"$version":                   true,
	"$class":                     true,
	"$classes":                   true,
	"$classname":                 true,
	"NSKeyedArchiver":            true,
	"NSAttributedString":         true,
	"NSMutableAttributedString":  true,
	"NSString":                   true,
	"NSMutableString":            true,
	"NSDictionary":               true,
	"NSMutableDictionary":        true,
	"NSNumber":                   true,
	"NSValue":                    true,
	"NSObject":                   true,
	"NSData":                     true,
	"NSMutableData":              true,
	"streamtyped":                true,
}

// attributeClassFragments reject strings that name attributed-string
// attributes or appearance classes rather than content.
var attributeClassFragments = []string{
	"AttributeName",
	"NSColor",
	"UIColor",
	"NSFont",
	"UIFont",
	"ParagraphStyle",
	"NSKern",
	"NSLigature",
	"NSUnderline",
}

// isExcluded reports whether s is archive-format noise rather than content.
// The same rule applies in every tier.
func isExcluded(s string) bool {
	if strings.HasPrefix(s, "NS") ||
		strings.HasPrefix(s, "__") ||
		strings.HasPrefix(s, "CF") ||
		strings.HasPrefix(s, "$") {
		return true
	}
	if scaffoldTokens[s] {
		return true
	}
	for _, frag := range attributeClassFragments {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}

// decodeKeyedArchive is the structured tier: parse the payload as a binary
// plist keyed archive and pull the string out of the object table.
func decodeKeyedArchive(payload []byte) (text string, ok bool) {
	// The plist parser is exercised on hostile input; contain any panic and
	// let the byte-scan tiers take over.
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()

	var root map[string]interface{}
	if _, err := plist.Unmarshal(payload, &root); err != nil {
		return "", false
	}
	rawObjs, present := root["$objects"]
	if !present {
		return "", false
	}
	objects, isArray := rawObjs.([]interface{})
	if !isArray {
		return "", false
	}

	// Preferred shape: a dictionary carrying "NS.string", either inline or as
	// a UID reference into the same object table.
	for _, obj := range objects {
		dict, isDict := obj.(map[string]interface{})
		if !isDict {
			continue
		}
		val, has := dict["NS.string"]
		if !has {
			continue
		}
		if s := resolveString(val, objects); s != "" {
			return s, true
		}
	}

	// Otherwise the longest loose string that is not structural noise.
	best := ""
	for _, obj := range objects {
		s, isStr := obj.(string)
		if !isStr || len(s) <= 2 || isExcluded(s) {
			continue
		}
		if len(s) > len(best) {
			best = s
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// resolveString returns the string behind v, following one level of UID
// indirection into the object table. Cycles are impossible at depth one, so
// no visited set is needed.
func resolveString(v interface{}, objects []interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case plist.UID:
		if int(s) < len(objects) {
			if str, isStr := objects[s].(string); isStr {
				return str
			}
		}
	case uint64:
		// Some decoder paths surface UIDs as plain integers.
		if int(s) < len(objects) {
			if str, isStr := objects[s].(string); isStr {
				return str
			}
		}
	}
	return ""
}

// printableRun matches 3+ consecutive non-control characters in the lossily
// decoded payload.
var printableRun = regexp.MustCompile(`[^\x00-\x1f\x7f]{3,}`)

// scanPrintableRuns is the text-scan tier: decode the raw bytes as UTF-8 with
// replacement of invalid sequences and pick the most natural-language-looking
// printable run.
func scanPrintableRuns(payload []byte) (string, bool) {
	// Invalid sequences become NUL so they terminate runs instead of
	// splicing unrelated fragments together.
	decoded := strings.ToValidUTF8(string(payload), "\x00")
	runs := printableRun.FindAllString(decoded, -1)

	best := ""
	bestScore := 0
	for _, run := range runs {
		if isExcluded(run) {
			continue
		}
		if !mostlyAlphanumeric(run) {
			continue
		}
		// Favor multi-word snippets over lone framework identifiers.
		score := len(run)
		if strings.Contains(run, " ") {
			score += 10
		}
		if score > bestScore {
			best, bestScore = run, score
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// mostlyAlphanumeric reports whether alphanumeric-or-space characters make up
// more than 70% of the run, filtering binary noise that happens to be
// printable.
func mostlyAlphanumeric(run string) bool {
	total := 0
	alnum := 0
	for _, r := range run {
		total++
		if r == ' ' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return false
	}
	return float64(alnum)/float64(total) > 0.7
}

// scrubASCII is the last-resort tier: keep printable ASCII bytes, blank out
// the rest, and salvage whatever words survive.
func scrubASCII(payload []byte) (string, bool) {
	scrubbed := make([]byte, len(payload))
	for i, b := range payload {
		if b >= 32 && b <= 126 {
			scrubbed[i] = b
		} else {
			scrubbed[i] = ' '
		}
	}

	var words []string
	for _, w := range strings.Fields(string(scrubbed)) {
		if len(w) <= 2 {
			continue
		}
		if strings.HasPrefix(w, "NS") ||
			strings.HasPrefix(w, "__") ||
			strings.HasPrefix(w, "CF") ||
			strings.HasPrefix(w, "$") {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return "", false
	}
	return strings.Join(words, " "), true
}
