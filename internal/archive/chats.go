package archive

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Chat summarizes one conversation in the store.
type Chat struct {
	ID              int64
	GUID            string
	Service         Service
	DisplayName     string
	IsGroup         bool
	Participants    []string
	MessageCount    int64
	UnreadCount     int64
	LastMessageTime time.Time
	LastMessage     *string
}

// RecentMessages returns the newest messages, optionally restricted to one
// handle. limit caps the row count.
func (a *Archive) RecentMessages(ctx context.Context, handle string, limit int) ([]Message, error) {
	if limit < 1 {
		limit = 10
	}

	query := "SELECT " + searchColumns + searchJoins + "\n\tWHERE " + eligibleExpr
	var args []interface{}
	if handle != "" {
		query += " AND h.id = ?"
		args = append(args, NormalizeHandle(handle))
	}
	query += "\n\tORDER BY m.date DESC LIMIT ?"
	args = append(args, limit)

	return a.queryMessages(ctx, "recent messages", query, args...)
}

// MessageCount returns the number of eligible rows in the store.
func (a *Archive) MessageCount(ctx context.Context) (int64, error) {
	conn, err := a.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count int64
	err = conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM message m WHERE "+eligibleExpr).Scan(&count)
	if err != nil {
		return 0, accessErr("message count", err)
	}
	return count, nil
}

// RecentChats returns chats ordered by last-message time, newest first.
func (a *Archive) RecentChats(ctx context.Context, limit int) ([]Chat, error) {
	if limit < 1 {
		limit = 20
	}

	conn, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `
		SELECT
			c.ROWID,
			c.guid,
			COALESCE(c.service_name, ''),
			COALESCE(c.display_name, ''),
			COALESCE(c.room_name, ''),
			GROUP_CONCAT(DISTINCT h.id),
			COUNT(DISTINCT m.ROWID),
			SUM(CASE WHEN m.is_read = 0 AND m.is_from_me = 0 THEN 1 ELSE 0 END),
			MAX(m.date)
		FROM chat c
		LEFT JOIN chat_handle_join chj ON c.ROWID = chj.chat_id
		LEFT JOIN handle h ON chj.handle_id = h.ROWID
		LEFT JOIN chat_message_join cmj ON c.ROWID = cmj.chat_id
		LEFT JOIN message m ON cmj.message_id = m.ROWID
		GROUP BY c.ROWID
		ORDER BY MAX(m.date) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, accessErr("recent chats", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var (
			c            Chat
			svc          string
			roomName     string
			participants sql.NullString
			unread       sql.NullInt64
			lastDate     sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.GUID, &svc, &c.DisplayName, &roomName,
			&participants, &c.MessageCount, &unread, &lastDate); err != nil {
			return nil, accessErr("recent chats scan", err)
		}
		c.Service = Service(svc)
		c.IsGroup = roomName != ""
		if participants.Valid && participants.String != "" {
			c.Participants = strings.Split(participants.String, ",")
		}
		if unread.Valid {
			c.UnreadCount = unread.Int64
		}
		if lastDate.Valid {
			c.LastMessageTime = timeFromApple(lastDate.Int64)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, accessErr("recent chats", err)
	}
	return chats, nil
}

// FindChatByHandle looks up the chat a handle participates in. Phone-number
// handles are normalized first. Returns nil when no chat matches.
func (a *Archive) FindChatByHandle(ctx context.Context, handle string) (*Chat, error) {
	conn, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var (
		c            Chat
		svc          sql.NullString
		participants sql.NullString
	)
	err = conn.QueryRowContext(ctx, `
		SELECT c.ROWID, c.guid, c.service_name, GROUP_CONCAT(h.id)
		FROM chat c
		LEFT JOIN chat_handle_join chj ON c.ROWID = chj.chat_id
		LEFT JOIN handle h ON chj.handle_id = h.ROWID
		WHERE h.id = ?
		GROUP BY c.ROWID
	`, NormalizeHandle(handle)).Scan(&c.ID, &c.GUID, &svc, &participants)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, accessErr("find chat", err)
	}
	c.Service = Service(svc.String)
	if participants.Valid && participants.String != "" {
		c.Participants = strings.Split(participants.String, ",")
	}
	return &c, nil
}
