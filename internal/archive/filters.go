package archive

import (
	"strings"
	"time"
	"unicode"
)

// Filters holds the independently optional search criteria. Zero values
// impose no constraint.
type Filters struct {
	Content        string       // case-insensitive substring match
	Sender         string       // handle; phone numbers are normalized
	StartDate      *time.Time   // inclusive, store-local calendar day
	EndDate        *time.Time   // inclusive, store-local calendar day
	MessageTypes   []MessageType
	Services       []Service
	ReadStatus     *bool
	HasAttachments *bool
}

// normalized returns a copy with unrecognized enum values silently dropped.
// Search-UI callers rely on this permissiveness: an unknown service or type
// never rejects the whole query, and a filter list that empties out imposes
// no constraint at all.
func (f Filters) normalized() Filters {
	var types []MessageType
	for _, t := range f.MessageTypes {
		switch MessageType(strings.ToLower(string(t))) {
		case TypeText:
			types = append(types, TypeText)
		case TypeAttachment:
			types = append(types, TypeAttachment)
		}
	}
	f.MessageTypes = types

	var services []Service
	for _, s := range f.Services {
		switch strings.ToLower(string(s)) {
		case "imessage":
			services = append(services, ServiceIMessage)
		case "sms":
			services = append(services, ServiceSMS)
		}
	}
	f.Services = services

	if f.Sender != "" {
		f.Sender = NormalizeHandle(f.Sender)
	}
	return f
}

func (f Filters) hasType(t MessageType) bool {
	for _, mt := range f.MessageTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// dateExpr converts the store-native timestamp to a local calendar date in
// SQL, so a message and a filter boundary on the same day match inclusively.
const dateExpr = "date(datetime(m.date/1000000000 + strftime('%s', '2001-01-01'), 'unixepoch', 'localtime'))"

// eligibleExpr excludes semantically empty rows: a message must have text,
// a rich-text payload that may decode to text, or an attachment.
const eligibleExpr = "((m.text IS NOT NULL AND length(m.text) > 0) OR m.attributedBody IS NOT NULL OR m.cache_has_attachments = 1)"

// conditions builds the WHERE fragment shared by the page query and the
// count query. Both queries MUST use this one builder; diverging predicate
// sets silently desynchronize total_count from the returned pages.
func (f Filters) conditions() ([]string, []interface{}) {
	conds := []string{
		"m.service IN ('iMessage', 'SMS')",
		eligibleExpr,
	}
	var args []interface{}

	if f.Content != "" {
		conds = append(conds, "m.text LIKE ?")
		args = append(args, "%"+f.Content+"%")
	}

	// Requesting both text and attachment messages is the same as no type
	// filter; so is an empty list after normalization.
	if len(f.MessageTypes) > 0 {
		hasText := f.hasType(TypeText)
		hasAttach := f.hasType(TypeAttachment)
		switch {
		case hasText && hasAttach:
			// no constraint
		case hasAttach:
			conds = append(conds, "m.cache_has_attachments = 1")
		case hasText:
			conds = append(conds, "m.cache_has_attachments = 0")
		}
	}

	if len(f.Services) > 0 {
		placeholders := make([]string, len(f.Services))
		for i, s := range f.Services {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		conds = append(conds, "m.service IN ("+strings.Join(placeholders, ",")+")")
	}

	if f.ReadStatus != nil {
		conds = append(conds, "m.is_read = ?")
		args = append(args, boolToInt(*f.ReadStatus))
	}

	if f.HasAttachments != nil {
		conds = append(conds, "m.cache_has_attachments = ?")
		args = append(args, boolToInt(*f.HasAttachments))
	}

	if f.Sender != "" {
		conds = append(conds, "(h.id = ? OR (m.is_from_me = 1 AND h.id = ?))")
		args = append(args, f.Sender, f.Sender)
	}

	if f.StartDate != nil {
		conds = append(conds, dateExpr+" >= date(?)")
		args = append(args, f.StartDate.Format("2006-01-02"))
	}
	if f.EndDate != nil {
		conds = append(conds, dateExpr+" <= date(?)")
		args = append(args, f.EndDate.Format("2006-01-02"))
	}

	return conds, args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NormalizeHandle canonicalizes a phone-number handle into the +E.164 form
// the handle table stores. Inputs without digits (email addresses) pass
// through unchanged, as do numbers that fit neither US pattern.
func NormalizeHandle(handle string) string {
	hasDigit := false
	for _, r := range handle {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return handle
	}

	var digits strings.Builder
	for _, r := range handle {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d
	default:
		return handle
	}
}
