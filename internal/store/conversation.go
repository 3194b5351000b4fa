package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/rcliao/coach-memory/internal/model"
)

var conversationColumns = []string{
	"id", "user_id", "title", "is_formal", "session_number", "started_at", "ended_at", "summary",
}

var messageColumns = []string{
	"id", "conversation_id", "from_user", "content", "is_transcript", "created_at",
}

// StartConversation opens a conversation. Formal sessions are numbered
// 1, 2, 3... per user in the order they start.
func (s *SQLiteStore) StartConversation(ctx context.Context, p StartParams) (*model.Conversation, error) {
	if p.UserID == "" {
		return nil, errors.New("user id is required")
	}
	c := &model.Conversation{
		ID:        s.newID(),
		UserID:    p.UserID,
		Title:     p.Title,
		IsFormal:  p.IsFormal,
		StartedAt: now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if p.IsFormal {
		row, err := queryRow(ctx, tx, sq.Select("COALESCE(MAX(session_number), 0) + 1").
			From("conversations").
			Where(sq.Eq{"user_id": p.UserID, "is_formal": true}))
		if err != nil {
			return nil, err
		}
		var n int
		if err := row.Scan(&n); err != nil {
			return nil, fmt.Errorf("next session number: %w", err)
		}
		c.SessionNumber = &n
	}

	if _, err := insertConversation(ctx, tx, *c, ""); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

func insertConversation(ctx context.Context, db execer, c model.Conversation, opt string) (int64, error) {
	b := sq.Insert("conversations").
		Columns(conversationColumns...).
		Values(c.ID, c.UserID, c.Title, c.IsFormal, c.SessionNumber,
			formatTime(c.StartedAt), formatTimePtr(c.EndedAt), c.Summary)
	if opt != "" {
		b = b.Options(opt)
	}
	res, err := exec(ctx, db, b)
	if err != nil {
		return 0, fmt.Errorf("insert conversation: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Conversation(ctx context.Context, id string) (*model.Conversation, error) {
	return getConversation(ctx, s.db, id)
}

func getConversation(ctx context.Context, db execer, id string) (*model.Conversation, error) {
	row, err := queryRow(ctx, db, sq.Select(conversationColumns...).
		From("conversations").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EndConversation marks a conversation ended and stores its summary.
// Ending twice keeps the first end time but replaces a non-empty summary.
func (s *SQLiteStore) EndConversation(ctx context.Context, id, summary string) (*model.Conversation, error) {
	c, err := s.Conversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.EndedAt == nil {
		t := now()
		c.EndedAt = &t
	}
	if summary != "" {
		c.Summary = summary
	}
	_, err = exec(ctx, s.db, sq.Update("conversations").
		Set("ended_at", formatTimePtr(c.EndedAt)).
		Set("summary", c.Summary).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("end conversation: %w", err)
	}
	return c, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := exec(ctx, s.db, sq.Delete("conversations").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, p MessageParams) (*model.Message, error) {
	c, err := s.Conversation(ctx, p.ConversationID)
	if err != nil {
		return nil, err
	}
	if c.Ended() {
		return nil, fmt.Errorf("conversation %s: %w", c.ID, ErrConversationEnded)
	}

	m := &model.Message{
		ID:             s.newID(),
		ConversationID: p.ConversationID,
		FromUser:       p.FromUser,
		Content:        p.Content,
		IsTranscript:   p.IsTranscript,
		CreatedAt:      now(),
	}
	if _, err := insertMessage(ctx, s.db, *m, ""); err != nil {
		return nil, err
	}
	return m, nil
}

func insertMessage(ctx context.Context, db execer, m model.Message, opt string) (int64, error) {
	b := sq.Insert("messages").
		Columns(messageColumns...).
		Values(m.ID, m.ConversationID, m.FromUser, m.Content, m.IsTranscript, formatTime(m.CreatedAt))
	if opt != "" {
		b = b.Options(opt)
	}
	res, err := exec(ctx, db, b)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Conversations(ctx context.Context, userID string, since time.Time) ([]model.Conversation, error) {
	b := sq.Select(conversationColumns...).
		From("conversations").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("started_at", "id")
	if !since.IsZero() {
		b = b.Where(sq.GtOrEq{"started_at": formatTime(since)})
	}
	rows, err := query(ctx, s.db, b)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanConversation)
}

func (s *SQLiteStore) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := query(ctx, s.db, sq.Select(messageColumns...).
		From("messages").
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanMessage)
}

func (s *SQLiteStore) RecentUserMessages(ctx context.Context, userID string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	rows, err := query(ctx, s.db, sq.Select("m.content").
		From("messages m").
		Join("conversations c ON c.id = m.conversation_id").
		Where(sq.Eq{"c.user_id": userID, "m.from_user": true}).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(uint64(n)))
	if err != nil {
		return nil, err
	}
	texts, err := scanAll(rows, func(r scanner) (string, error) {
		var s string
		err := r.Scan(&s)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(texts)
	return texts, nil
}

func scanConversation(row scanner) (model.Conversation, error) {
	var c model.Conversation
	var session sql.NullInt64
	var startedAt string
	var endedAt sql.NullString

	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.IsFormal, &session, &startedAt, &endedAt, &c.Summary)
	if err != nil {
		return c, err
	}
	c.StartedAt = parseTime(startedAt)
	c.EndedAt = parseTimePtr(endedAt)
	if session.Valid {
		n := int(session.Int64)
		c.SessionNumber = &n
	}
	return c, nil
}

func scanMessage(row scanner) (model.Message, error) {
	var m model.Message
	var createdAt string
	err := row.Scan(&m.ID, &m.ConversationID, &m.FromUser, &m.Content, &m.IsTranscript, &createdAt)
	if err != nil {
		return m, err
	}
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}
