package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wkerr/chatarchive/internal/richtext"
)

// searchColumns are the row fields the page query selects.
const searchColumns = `
	m.ROWID,
	m.text,
	m.attributedBody,
	h.id,
	m.date,
	m.is_from_me,
	m.service,
	m.is_read,
	m.cache_has_attachments,
	a.filename,
	a.mime_type,
	m.associated_message_type`

// searchJoins attach the sender handle and attachment metadata to each row.
const searchJoins = `
	FROM message m
	LEFT JOIN handle h ON m.handle_id = h.ROWID
	LEFT JOIN message_attachment_join maj ON m.ROWID = maj.message_id
	LEFT JOIN attachment a ON maj.attachment_id = a.ROWID`

// Search returns one page of messages matching filters, newest first.
// page is 1-based; pageSize must be >= 1. The page query and the count query
// run concurrently against the read-only store and both must complete before
// a SearchResult is built.
func (a *Archive) Search(ctx context.Context, filters Filters, page, pageSize int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1, got %d", pageSize)
	}

	f := filters.normalized()
	conds, args := f.conditions()
	where := strings.Join(conds, " AND ")

	pageSQL := "SELECT " + searchColumns + searchJoins +
		"\n\tWHERE " + where +
		"\n\tORDER BY m.date DESC LIMIT ? OFFSET ?"
	pageArgs := append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)

	countSQL := "SELECT COUNT(*)" + searchJoins + "\n\tWHERE " + where

	var (
		messages   []Message
		totalCount int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		messages, err = a.queryMessages(gctx, "search page", pageSQL, pageArgs...)
		return err
	})
	g.Go(func() error {
		conn, err := a.conn(gctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.QueryRowContext(gctx, countSQL, args...).Scan(&totalCount); err != nil {
			return accessErr("search count", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.recordSearch(f, totalCount)

	return newSearchResult(messages, totalCount, page, pageSize), nil
}

// queryMessages runs a message query on its own connection and scans rows
// into Messages, running the rich-text decoder for rows with no plain text.
func (a *Archive) queryMessages(ctx context.Context, name, query string, args ...interface{}) ([]Message, error) {
	conn, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr(name, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, accessErr(name+" scan", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, accessErr(name, err)
	}
	return messages, nil
}

// scanMessage builds one Message from the searchColumns row shape.
func scanMessage(rows *sql.Rows) (Message, error) {
	var (
		id             int64
		text           sql.NullString
		payload        []byte
		handle         sql.NullString
		rawDate        sql.NullInt64
		isFromMe       bool
		service        sql.NullString
		isRead         bool
		hasAttachment  bool
		attachmentName sql.NullString
		attachmentMIME sql.NullString
		assocType      sql.NullInt64
	)
	if err := rows.Scan(&id, &text, &payload, &handle, &rawDate, &isFromMe,
		&service, &isRead, &hasAttachment, &attachmentName, &attachmentMIME,
		&assocType); err != nil {
		return Message{}, err
	}

	m := Message{
		ID:            id,
		IsFromMe:      isFromMe,
		Service:       Service(service.String),
		IsRead:        isRead,
		HasAttachment: hasAttachment,
		Kind:          kindFromCode(assocType),
	}

	if rawDate.Valid {
		m.Timestamp = timeFromApple(rawDate.Int64)
	}

	if text.Valid && text.String != "" {
		t := text.String
		m.Text = &t
	} else if len(payload) > 0 {
		// Plain text column is empty but the message carried formatting:
		// recover what we can. A failed decode leaves Text nil, which
		// callers treat as genuinely absent text.
		if decoded, ok := richtext.Decode(payload); ok {
			m.Text = &decoded
		}
	}

	if isFromMe {
		m.Sender = OwnerSender
	} else if handle.Valid && handle.String != "" {
		m.Sender = handle.String
	} else {
		m.Sender = "unknown"
	}

	if hasAttachment {
		if attachmentName.Valid {
			n := attachmentName.String
			m.AttachmentName = &n
		}
		if attachmentMIME.Valid {
			mt := attachmentMIME.String
			m.AttachmentMIME = &mt
		}
	}

	return m, nil
}

// kindFromCode maps the store's associated_message_type to a Kind.
func kindFromCode(code sql.NullInt64) Kind {
	if !code.Valid {
		return KindPlain
	}
	switch code.Int64 {
	case 1:
		return KindReply
	case 2:
		return KindReaction
	default:
		return KindPlain
	}
}

// recordSearch forwards the completed search to the history sink.
// Best-effort: a sink failure is logged and the search still succeeds.
func (a *Archive) recordSearch(f Filters, totalCount int64) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.RecordSearch(f, totalCount); err != nil {
		a.logger.Warn("recording search history failed", "error", err)
	}
}
