package archive

import (
	"math"
	"time"
)

// Service identifies the transport a message was carried on.
type Service string

const (
	ServiceIMessage Service = "iMessage"
	ServiceSMS      Service = "SMS"
)

// MessageType distinguishes text messages from attachment messages in
// filters.
type MessageType string

const (
	TypeText       MessageType = "text"
	TypeAttachment MessageType = "attachment"
)

// Kind is derived from the store's associated_message_type code.
type Kind string

const (
	KindPlain    Kind = "plain"
	KindReply    Kind = "reply"
	KindReaction Kind = "reaction"
)

// OwnerSender is the sender value used for messages sent by the archive
// owner, replacing the handle lookup.
const OwnerSender = "me"

// Message is one row of the message store, resolved at the store boundary.
// Messages are immutable value objects; no component mutates one after
// construction.
type Message struct {
	ID             int64
	Text           *string // nil when the row had no recoverable text
	Sender         string  // handle (phone/email) or OwnerSender
	Timestamp      time.Time
	IsFromMe       bool
	Service        Service
	IsRead         bool
	HasAttachment  bool
	AttachmentName *string
	AttachmentMIME *string
	Kind           Kind
}

// ResolvedText returns the message text, or "" when absent.
func (m *Message) ResolvedText() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}

// SearchResult is one immutable page of matching messages.
type SearchResult struct {
	Messages   []Message
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}

func newSearchResult(messages []Message, totalCount int64, page, pageSize int) *SearchResult {
	return &SearchResult{
		Messages:   messages,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(pageSize))),
	}
}

// HasNextPage reports whether pages beyond this one exist.
func (r *SearchResult) HasNextPage() bool {
	return r.Page < r.TotalPages
}

// HasPreviousPage reports whether this is not the first page.
func (r *SearchResult) HasPreviousPage() bool {
	return r.Page > 1
}
