package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/rcliao/coach-memory/internal/model"
)

var memoryColumns = []string{
	"id", "user_id", "conversation_id", "message_id", "content", "category",
	"importance_score", "created_at", "updated_at",
}

// AddImportantMemory stores m after validating its category and
// normalizing its importance score to 0-1. ID and timestamps are assigned
// when unset.
func (s *SQLiteStore) AddImportantMemory(ctx context.Context, m model.ImportantMemory) (*model.ImportantMemory, error) {
	if err := model.ValidateCategory(m.Category); err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.ImportanceScore = model.NormalizeImportance(m.ImportanceScore)

	if _, err := insertMemory(ctx, s.db, m, ""); err != nil {
		return nil, err
	}
	return &m, nil
}

func insertMemory(ctx context.Context, db execer, m model.ImportantMemory, opt string) (int64, error) {
	b := sq.Insert("important_memories").
		Columns(memoryColumns...).
		Values(m.ID, m.UserID, nullString(m.ConversationID), nullString(m.MessageID), m.Content,
			nullString(m.Category), m.ImportanceScore, formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if opt != "" {
		b = b.Options(opt)
	}
	res, err := exec(ctx, db, b)
	if err != nil {
		return 0, fmt.Errorf("insert memory: %w", err)
	}
	return res.RowsAffected()
}

// ImportantMemories returns all of the user's memories, oldest first.
func (s *SQLiteStore) ImportantMemories(ctx context.Context, userID string) ([]model.ImportantMemory, error) {
	rows, err := query(ctx, s.db, sq.Select(memoryColumns...).
		From("important_memories").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanMemory)
}

// ListImportantMemories returns the user's memories matching f, newest first.
func (s *SQLiteStore) ListImportantMemories(ctx context.Context, f MemoryFilter) ([]model.ImportantMemory, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	b := sq.Select(memoryColumns...).
		From("important_memories").
		Where(sq.Eq{"user_id": f.UserID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.MinImportance > 0 {
		b = b.Where(sq.GtOrEq{"importance_score": model.NormalizeImportance(f.MinImportance)})
	}
	rows, err := query(ctx, s.db, b)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanMemory)
}

func scanMemory(row scanner) (model.ImportantMemory, error) {
	var m model.ImportantMemory
	var convID, msgID, category sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&m.ID, &m.UserID, &convID, &msgID, &m.Content, &category,
		&m.ImportanceScore, &createdAt, &updatedAt)
	if err != nil {
		return m, err
	}
	m.ConversationID = convID.String
	m.MessageID = msgID.String
	m.Category = category.String
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return m, nil
}
