package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wkerr/chatarchive/internal/archive"
	"github.com/wkerr/chatarchive/internal/thread"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeArchiveError maps archive failures onto API statuses. Access errors
// surface as a setup problem, everything else as internal.
func (s *Server) writeArchiveError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	if errors.Is(err, archive.ErrAccess) {
		writeError(w, http.StatusServiceUnavailable, "archive_unavailable",
			"Messages database is not accessible; check Full Disk Access and that Messages is closed")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", op+" failed")
}

// MessageView is a message in API responses.
type MessageView struct {
	ID             int64  `json:"id"`
	Text           string `json:"text"`
	Sender         string `json:"sender"`
	Timestamp      string `json:"timestamp,omitempty"`
	IsFromMe       bool   `json:"is_from_me"`
	Service        string `json:"service"`
	IsRead         bool   `json:"is_read"`
	HasAttachment  bool   `json:"has_attachment"`
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentMIME string `json:"attachment_mime_type,omitempty"`
	Kind           string `json:"kind"`
}

func messageView(m archive.Message) MessageView {
	v := MessageView{
		ID:            m.ID,
		Text:          m.ResolvedText(),
		Sender:        m.Sender,
		IsFromMe:      m.IsFromMe,
		Service:       string(m.Service),
		IsRead:        m.IsRead,
		HasAttachment: m.HasAttachment,
		Kind:          string(m.Kind),
	}
	if !m.Timestamp.IsZero() {
		v.Timestamp = m.Timestamp.Format(time.RFC3339)
	}
	if m.AttachmentName != nil {
		v.AttachmentName = *m.AttachmentName
	}
	if m.AttachmentMIME != nil {
		v.AttachmentMIME = *m.AttachmentMIME
	}
	return v
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Messages   []MessageView `json:"messages"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// filtersFromQuery builds archive filters from request query parameters.
// Unknown enum values pass straight through; the archive layer drops them.
func filtersFromQuery(r *http.Request) archive.Filters {
	q := r.URL.Query()
	f := archive.Filters{
		Content: q.Get("content"),
		Sender:  q.Get("sender"),
	}
	if v := q.Get("start_date"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			f.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			f.EndDate = &t
		}
	}
	for _, v := range q["type"] {
		f.MessageTypes = append(f.MessageTypes, archive.MessageType(v))
	}
	for _, v := range q["service"] {
		f.Services = append(f.Services, archive.Service(v))
	}
	if v := q.Get("read"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.ReadStatus = &b
		}
	}
	if v := q.Get("has_attachments"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.HasAttachments = &b
		}
	}
	return f
}

func pageParams(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(q.Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// handleSearch runs a filtered, paginated message search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := s.archive.Search(r.Context(), filtersFromQuery(r), page, pageSize)
	if err != nil {
		s.writeArchiveError(w, "search", err)
		return
	}

	views := make([]MessageView, len(result.Messages))
	for i, m := range result.Messages {
		views[i] = messageView(m)
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Messages:   views,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// handleRecentMessages returns the newest messages, optionally for one
// handle.
func (s *Server) handleRecentMessages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 20
	}
	messages, err := s.archive.RecentMessages(r.Context(), r.URL.Query().Get("handle"), limit)
	if err != nil {
		s.writeArchiveError(w, "recent messages", err)
		return
	}

	views := make([]MessageView, len(messages))
	for i, m := range messages {
		views[i] = messageView(m)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": views})
}

// ChatView is a chat in API responses.
type ChatView struct {
	ID           int64    `json:"id"`
	GUID         string   `json:"guid"`
	Service      string   `json:"service"`
	DisplayName  string   `json:"display_name,omitempty"`
	IsGroup      bool     `json:"is_group"`
	Participants []string `json:"participants"`
	MessageCount int64    `json:"message_count"`
	UnreadCount  int64    `json:"unread_count"`
	LastMessage  string   `json:"last_message_at,omitempty"`
}

// handleChats returns recent chats.
func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 20
	}
	chats, err := s.archive.RecentChats(r.Context(), limit)
	if err != nil {
		s.writeArchiveError(w, "recent chats", err)
		return
	}

	views := make([]ChatView, len(chats))
	for i, c := range chats {
		views[i] = ChatView{
			ID:           c.ID,
			GUID:         c.GUID,
			Service:      string(c.Service),
			DisplayName:  c.DisplayName,
			IsGroup:      c.IsGroup,
			Participants: c.Participants,
			MessageCount: c.MessageCount,
			UnreadCount:  c.UnreadCount,
		}
		if !c.LastMessageTime.IsZero() {
			views[i].LastMessage = c.LastMessageTime.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": views})
}

// ThreadView is a detected thread in API responses.
type ThreadView struct {
	ID              int           `json:"thread_id"`
	MessageCount    int           `json:"message_count"`
	StartTime       string        `json:"start_time,omitempty"`
	EndTime         string        `json:"end_time,omitempty"`
	DurationMinutes float64       `json:"duration_minutes"`
	Participants    []string      `json:"participants"`
	TopicSummary    string        `json:"topic_summary"`
	Messages        []MessageView `json:"messages"`
}

// ThreadsResponse carries detected threads plus related-thread groups.
type ThreadsResponse struct {
	Threads       []ThreadView `json:"threads"`
	RelatedGroups [][]int      `json:"related_groups"`
}

// handleThreads searches messages and segments the results into threads.
// Accepts the same query parameters as /search plus the segmentation window
// comes from configuration.
func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 2000 {
		limit = 500
	}
	result, err := s.archive.Search(r.Context(), filtersFromQuery(r), 1, limit)
	if err != nil {
		s.writeArchiveError(w, "thread search", err)
		return
	}

	threads := s.detector.DetectThreads(result.Messages)
	groups := s.detector.FindRelatedThreads(threads, s.cfg.Threads.MaxDaysApart)

	views := make([]ThreadView, len(threads))
	for i, t := range threads {
		views[i] = threadView(t)
	}
	if groups == nil {
		groups = [][]int{}
	}
	writeJSON(w, http.StatusOK, ThreadsResponse{Threads: views, RelatedGroups: groups})
}

func threadView(t thread.Thread) ThreadView {
	v := ThreadView{
		ID:              t.ID,
		MessageCount:    len(t.Messages),
		DurationMinutes: t.DurationMinutes,
		Participants:    t.Participants,
		TopicSummary:    t.TopicSummary,
	}
	if !t.StartTime.IsZero() {
		v.StartTime = t.StartTime.Format(time.RFC3339)
	}
	if !t.EndTime.IsZero() {
		v.EndTime = t.EndTime.Format(time.RFC3339)
	}
	v.Messages = make([]MessageView, len(t.Messages))
	for i, m := range t.Messages {
		v.Messages[i] = messageView(m)
	}
	return v
}

// StatsResponse represents archive statistics.
type StatsResponse struct {
	TotalMessages int64 `json:"total_messages"`
}

// handleStats returns archive statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.archive.MessageCount(r.Context())
	if err != nil {
		s.writeArchiveError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{TotalMessages: count})
}

// handleHistory returns recent or popular searches.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history_unavailable", "Search history is not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if r.URL.Query().Get("sort") == "popular" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"searches": s.history.Popular(limit)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"searches": s.history.Recent(limit)})
}
