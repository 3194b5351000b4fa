package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/rcliao/coach-memory/internal/model"
)

var homeworkColumns = []string{
	"id", "user_id", "conversation_id", "title", "description", "technique",
	"due_date", "completed_at", "completion_notes", "created_at",
}

func (s *SQLiteStore) AssignHomework(ctx context.Context, p HomeworkParams) (*model.Homework, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, errors.New("homework title is required")
	}
	h := &model.Homework{
		ID:             s.newID(),
		UserID:         p.UserID,
		ConversationID: p.ConversationID,
		Title:          p.Title,
		Description:    p.Description,
		Technique:      p.Technique,
		DueDate:        p.DueDate,
		CreatedAt:      now(),
	}
	if _, err := insertHomework(ctx, s.db, *h, ""); err != nil {
		return nil, err
	}
	return h, nil
}

func insertHomework(ctx context.Context, db execer, h model.Homework, opt string) (int64, error) {
	b := sq.Insert("homework").
		Columns(homeworkColumns...).
		Values(h.ID, h.UserID, nullString(h.ConversationID), h.Title, h.Description, h.Technique,
			formatTimePtr(h.DueDate), formatTimePtr(h.CompletedAt), h.CompletionNotes, formatTime(h.CreatedAt))
	if opt != "" {
		b = b.Options(opt)
	}
	res, err := exec(ctx, db, b)
	if err != nil {
		return 0, fmt.Errorf("insert homework: %w", err)
	}
	return res.RowsAffected()
}

// CompleteHomework records completion with optional notes.
func (s *SQLiteStore) CompleteHomework(ctx context.Context, id, notes string) (*model.Homework, error) {
	h, err := s.homeworkByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.Completed() {
		return nil, fmt.Errorf("homework %s: %w", id, ErrAlreadyCompleted)
	}
	t := now()
	h.CompletedAt = &t
	h.CompletionNotes = notes

	_, err = exec(ctx, s.db, sq.Update("homework").
		Set("completed_at", formatTime(t)).
		Set("completion_notes", notes).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("complete homework: %w", err)
	}
	return h, nil
}

func (s *SQLiteStore) homeworkByID(ctx context.Context, id string) (*model.Homework, error) {
	row, err := queryRow(ctx, s.db, sq.Select(homeworkColumns...).
		From("homework").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	h, err := scanHomework(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("homework %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Homework returns the user's assignments in the order they were given.
func (s *SQLiteStore) Homework(ctx context.Context, userID string) ([]model.Homework, error) {
	rows, err := query(ctx, s.db, sq.Select(homeworkColumns...).
		From("homework").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanHomework)
}

func scanHomework(row scanner) (model.Homework, error) {
	var h model.Homework
	var convID, dueDate, completedAt sql.NullString
	var createdAt string

	err := row.Scan(&h.ID, &h.UserID, &convID, &h.Title, &h.Description, &h.Technique,
		&dueDate, &completedAt, &h.CompletionNotes, &createdAt)
	if err != nil {
		return h, err
	}
	h.ConversationID = convID.String
	h.DueDate = parseTimePtr(dueDate)
	h.CompletedAt = parseTimePtr(completedAt)
	h.CreatedAt = parseTime(createdAt)
	return h, nil
}
