package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/rcliao/coach-memory/internal/model"
)

// SetRiskProfile creates or replaces the user's baseline scores.
// Scores must be within 0-10 when set.
func (s *SQLiteStore) SetRiskProfile(ctx context.Context, userID string, p model.RiskProfile) error {
	if err := checkScore("anxiety", p.AnxietyScore); err != nil {
		return err
	}
	if err := checkScore("depression", p.DepressionScore); err != nil {
		return err
	}
	_, err := exec(ctx, s.db, sq.Insert("risk_profiles").
		Options("OR REPLACE").
		Columns("user_id", "anxiety_score", "depression_score", "updated_at").
		Values(userID, p.AnxietyScore, p.DepressionScore, formatTime(now())))
	if err != nil {
		return fmt.Errorf("set risk profile: %w", err)
	}
	return nil
}

func checkScore(name string, v *int) error {
	if v != nil && (*v < 0 || *v > 10) {
		return fmt.Errorf("%s score %d out of range 0-10", name, *v)
	}
	return nil
}

func (s *SQLiteStore) RiskProfile(ctx context.Context, userID string) (*model.RiskProfile, error) {
	row, err := queryRow(ctx, s.db, sq.Select("anxiety_score", "depression_score").
		From("risk_profiles").
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return nil, err
	}
	var anxiety, depression sql.NullInt64
	err = row.Scan(&anxiety, &depression)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get risk profile: %w", err)
	}
	p := &model.RiskProfile{}
	if anxiety.Valid {
		v := int(anxiety.Int64)
		p.AnxietyScore = &v
	}
	if depression.Valid {
		v := int(depression.Int64)
		p.DepressionScore = &v
	}
	return p, nil
}

var crisisColumns = []string{
	"id", "user_id", "conversation_id", "message", "categories", "risk_level", "confidence_score", "created_at",
}

// RecordCrisisEvent persists a detected crisis.
func (s *SQLiteStore) RecordCrisisEvent(ctx context.Context, e model.CrisisEvent) (*model.CrisisEvent, error) {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	if e.Categories == nil {
		e.Categories = []string{}
	}
	if _, err := insertCrisisEvent(ctx, s.db, e, ""); err != nil {
		return nil, err
	}
	return &e, nil
}

func insertCrisisEvent(ctx context.Context, db execer, e model.CrisisEvent, opt string) (int64, error) {
	cats, err := json.Marshal(e.Categories)
	if err != nil {
		return 0, err
	}
	b := sq.Insert("crisis_events").
		Columns(crisisColumns...).
		Values(e.ID, e.UserID, nullString(e.ConversationID), e.Message, string(cats),
			e.RiskLevel, e.ConfidenceScore, formatTime(e.CreatedAt))
	if opt != "" {
		b = b.Options(opt)
	}
	res, err := exec(ctx, db, b)
	if err != nil {
		return 0, fmt.Errorf("insert crisis event: %w", err)
	}
	return res.RowsAffected()
}

// CrisisEvents returns the user's crisis events, oldest first.
func (s *SQLiteStore) CrisisEvents(ctx context.Context, userID string) ([]model.CrisisEvent, error) {
	rows, err := query(ctx, s.db, sq.Select(crisisColumns...).
		From("crisis_events").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanCrisisEvent)
}

func scanCrisisEvent(row scanner) (model.CrisisEvent, error) {
	var e model.CrisisEvent
	var convID sql.NullString
	var cats, createdAt string

	err := row.Scan(&e.ID, &e.UserID, &convID, &e.Message, &cats, &e.RiskLevel, &e.ConfidenceScore, &createdAt)
	if err != nil {
		return e, err
	}
	e.ConversationID = convID.String
	e.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(cats), &e.Categories); err != nil {
		return e, fmt.Errorf("decode categories: %w", err)
	}
	return e, nil
}
